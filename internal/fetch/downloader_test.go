package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/franz/music-curator/internal/util"
)

// writeStubYTDLP writes a shell script that mimics the two yt-dlp
// invocations Fetch issues: the filename probe and the download, which
// drops a file into the -o template's directory.
func writeStubYTDLP(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binary requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp-stub")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

const stubDownloadScript = `#!/bin/sh
if [ "$1" = "--print" ]; then
	echo "Stub Track.mp3"
	exit 0
fi
out=""
prev=""
for arg in "$@"; do
	if [ "$prev" = "-o" ]; then out="$arg"; fi
	prev="$arg"
done
printf 'audio-bytes' > "$(dirname "$out")/Stub Track.mp3"
`

const stubUnavailableScript = `#!/bin/sh
echo "ERROR: Video unavailable" >&2
exit 1
`

func TestFetch_StagesAndRenamesIntoDest(t *testing.T) {
	bin := writeStubYTDLP(t, stubDownloadScript)
	dest := t.TempDir()
	d := NewDownloader(dest, WithBinary(bin))

	final, err := d.Fetch(context.Background(), "https://example.com/watch?v=stub")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if final != filepath.Join(dest, "Stub Track.mp3") {
		t.Errorf("unexpected final path %q", final)
	}
	data, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("unexpected file contents %q", data)
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			t.Errorf("staging directory %q left behind", entry.Name())
		}
	}
}

func TestFetch_SkipsExistingDownload(t *testing.T) {
	bin := writeStubYTDLP(t, stubDownloadScript)
	dest := t.TempDir()
	existing := filepath.Join(dest, "Stub Track.mp3")
	if err := os.WriteFile(existing, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	d := NewDownloader(dest, WithBinary(bin))
	final, err := d.Fetch(context.Background(), "https://example.com/watch?v=stub")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if final != existing {
		t.Errorf("expected existing path %q, got %q", existing, final)
	}

	data, _ := os.ReadFile(existing)
	if string(data) != "original" {
		t.Error("existing download was overwritten")
	}
}

func TestFetch_UnavailableSource(t *testing.T) {
	bin := writeStubYTDLP(t, stubUnavailableScript)
	d := NewDownloader(t.TempDir(), WithBinary(bin))

	_, err := d.Fetch(context.Background(), "https://example.com/watch?v=gone")
	if !errors.Is(err, util.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestReadURLList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `https://example.com/watch?v=one

# a comment
https://example.com/watch?v=two
   https://example.com/watch?v=three

`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLList(path)
	if err != nil {
		t.Fatalf("ReadURLList failed: %v", err)
	}

	expected := []string{
		"https://example.com/watch?v=one",
		"https://example.com/watch?v=two",
		"https://example.com/watch?v=three",
	}
	if !reflect.DeepEqual(urls, expected) {
		t.Errorf("ReadURLList() = %v, want %v", urls, expected)
	}
}

func TestReadURLList_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("\n# only comments\n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLList(path)
	if err != nil {
		t.Fatalf("ReadURLList failed: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("expected no URLs, got %v", urls)
	}
}

func TestReadURLList_MissingFile(t *testing.T) {
	if _, err := ReadURLList("/nonexistent/urls.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClassifyUnavailable(t *testing.T) {
	testCases := []struct {
		name     string
		stderr   string
		expected bool
	}{
		{
			name:     "private video",
			stderr:   "ERROR: [youtube] abc123: Private video. Sign in if you've been granted access",
			expected: true,
		},
		{
			name:     "removed video",
			stderr:   "ERROR: This video has been removed for violating terms",
			expected: true,
		},
		{
			name:     "geo blocked",
			stderr:   "ERROR: The uploader has not made this video not available in your country",
			expected: true,
		},
		{
			name:     "generic unavailable",
			stderr:   "ERROR: Video unavailable",
			expected: true,
		},
		{
			name:     "network error is transient",
			stderr:   "ERROR: Unable to download webpage: <urlopen error timed out>",
			expected: false,
		},
		{
			name:     "empty stderr",
			stderr:   "",
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyUnavailable(tc.stderr); got != tc.expected {
				t.Errorf("classifyUnavailable(%q) = %v, want %v", tc.stderr, got, tc.expected)
			}
		})
	}
}

func TestNewDownloader_Options(t *testing.T) {
	d := NewDownloader("/music",
		WithBinary("/opt/bin/yt-dlp"),
		WithCookieFile("/home/franz/cookies.txt"),
	)

	if d.binary != "/opt/bin/yt-dlp" {
		t.Errorf("expected binary override, got %q", d.binary)
	}
	if d.cookieFile != "/home/franz/cookies.txt" {
		t.Errorf("expected cookie file, got %q", d.cookieFile)
	}
	if d.destDir != "/music" {
		t.Errorf("expected dest dir '/music', got %q", d.destDir)
	}
}
