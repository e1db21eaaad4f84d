package util

import (
	"io"
	"os"
	"strings"
	"testing"
)

// captureStderr runs fn with os.Stderr redirected to a pipe and
// returns what was written.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	defer func() { os.Stderr = old }()

	fn()

	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestWorkerLog_TagsEveryLine(t *testing.T) {
	SetColors(false)
	SetLogLevel(LevelDebug)
	defer func() {
		SetColors(true)
		SetLogLevel(LevelInfo)
	}()

	out := captureStderr(t, func() {
		wl := NewWorkerLog(3)
		wl.Debugf("processing %s", "track.mp3")
		wl.Infof("enriched %s", "track.mp3")
		wl.Warnf("slow provider")
		wl.Errorf("giving up")
	})

	for _, want := range []string{
		"[worker-3] processing track.mp3",
		"[worker-3] enriched track.mp3",
		"[worker-3] slow provider",
		"[worker-3] giving up",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWorkerLog_RespectsLogLevel(t *testing.T) {
	SetColors(false)
	SetLogLevel(LevelInfo)
	defer func() {
		SetColors(true)
		SetLogLevel(LevelInfo)
	}()

	out := captureStderr(t, func() {
		NewWorkerLog(1).Debugf("hidden")
	})

	if strings.Contains(out, "hidden") {
		t.Errorf("debug line leaked at info level:\n%s", out)
	}
}
