package fetch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/franz/music-curator/internal/util"
)

// Downloader fetches single tracks with yt-dlp and converts them to
// mp3. Downloads are staged in a temp directory and renamed into place
// so a crash never leaves a half-written file in the library.
type Downloader struct {
	binary     string
	destDir    string
	cookieFile string
}

// Option configures a Downloader
type Option func(*Downloader)

// WithBinary overrides the yt-dlp binary path
func WithBinary(path string) Option {
	return func(d *Downloader) { d.binary = path }
}

// WithCookieFile passes a browser cookie export to yt-dlp, needed for
// age-restricted or membership content
func WithCookieFile(path string) Option {
	return func(d *Downloader) { d.cookieFile = path }
}

// NewDownloader creates a downloader writing into destDir
func NewDownloader(destDir string, opts ...Option) *Downloader {
	d := &Downloader{
		binary:  "yt-dlp",
		destDir: destDir,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Available reports whether the yt-dlp binary can be found
func (d *Downloader) Available() bool {
	_, err := exec.LookPath(d.binary)
	return err == nil
}

// unavailableMarkers are yt-dlp error fragments that mean the source
// itself is gone or blocked, as opposed to a transient failure
var unavailableMarkers = []string{
	"video unavailable",
	"private video",
	"this video has been removed",
	"not available in your country",
	"account associated with this video has been terminated",
	"sign in to confirm your age",
}

// Fetch downloads url as an mp3 into the destination directory and
// returns the final path. Sources that are private, deleted, or
// geo-blocked fail with util.ErrUnavailable.
func (d *Downloader) Fetch(ctx context.Context, url string) (string, error) {
	if err := util.RetryableMkdirAll(d.destDir, 0755, nil); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	name, err := d.probeFilename(ctx, url)
	if err != nil {
		return "", err
	}

	final := filepath.Join(d.destDir, name)
	if _, err := os.Stat(final); err == nil {
		util.DebugLog("already downloaded, skipping: %s", final)
		return final, nil
	}

	stageDir, err := os.MkdirTemp(d.destDir, ".fetch-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stageDir)

	args := []string{
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--no-playlist",
		"--no-warnings",
		"-o", filepath.Join(stageDir, "%(title)s.%(ext)s"),
	}
	if d.cookieFile != "" {
		args = append(args, "--cookies", d.cookieFile)
	}
	args = append(args, url)

	util.DebugLog("fetching %s", url)
	cmd := exec.CommandContext(ctx, d.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if classifyUnavailable(stderr.String()) {
			return "", fmt.Errorf("fetch %s: %w", url, util.ErrUnavailable)
		}
		return "", fmt.Errorf("yt-dlp failed for %s: %w\n%s", url, err, stderr.String())
	}

	staged, err := d.stagedFile(stageDir)
	if err != nil {
		return "", err
	}

	final = filepath.Join(d.destDir, filepath.Base(staged))
	if err := util.RetryableRename(staged, final, nil); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	util.SuccessLog("fetched %s", filepath.Base(final))
	return final, nil
}

// probeFilename asks yt-dlp what the output file would be named
// without downloading, so we can skip work already done
func (d *Downloader) probeFilename(ctx context.Context, url string) (string, error) {
	args := []string{
		"--print", "filename",
		"-o", "%(title)s.mp3",
		"--no-playlist",
		"--no-warnings",
		"--quiet",
	}
	if d.cookieFile != "" {
		args = append(args, "--cookies", d.cookieFile)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, d.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if classifyUnavailable(stderr.String()) {
			return "", fmt.Errorf("probe %s: %w", url, util.ErrUnavailable)
		}
		return "", fmt.Errorf("yt-dlp probe failed for %s: %w\n%s", url, err, stderr.String())
	}

	name := strings.TrimSpace(stdout.String())
	if name == "" {
		return "", fmt.Errorf("yt-dlp returned no filename for %s", url)
	}

	return filepath.Base(name), nil
}

// stagedFile returns the single file yt-dlp left in the staging dir
func (d *Downloader) stagedFile(stageDir string) (string, error) {
	entries, err := os.ReadDir(stageDir)
	if err != nil {
		return "", fmt.Errorf("failed to read staging directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			return filepath.Join(stageDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("yt-dlp produced no output file")
}

func classifyUnavailable(stderr string) bool {
	lowered := strings.ToLower(stderr)
	for _, marker := range unavailableMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// ReadURLList reads newline-delimited URLs from path. Blank lines and
// lines starting with # are ignored.
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}

	return urls, nil
}
