package meta

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/franz/music-curator/internal/util"
)

// RecognizedTags is the fixed set of tag keys the pipeline populates.
// A file is complete when every key carries a non-empty value.
var RecognizedTags = []string{
	"artist",
	"genre",
	"title",
	"album",
	"date",
	"tracknumber",
	"composer",
	"albumartist",
	"discnumber",
	"length",
	"comment",
}

// AudioExtensions are the supported audio file extensions
var AudioExtensions = []string{
	".mp3",
	".flac",
	".m4a",
	".aac",
	".ogg",
	".opus",
	".wav",
	".wma",
}

// IsAudioFile reports whether the path has a recognized audio extension
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range AudioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadTags reads the recognized tag set from an audio file.
// Keys with no value in the file are absent from the returned map.
func ReadTags(path string) (map[string]string, error) {
	if !IsAudioFile(path) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), util.ErrUnsupported)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	tags := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			tags[key] = value
		}
	}

	set("artist", m.Artist())
	set("genre", m.Genre())
	set("title", m.Title())
	set("album", m.Album())
	set("albumartist", m.AlbumArtist())
	set("composer", m.Composer())
	set("comment", m.Comment())

	if m.Year() > 0 {
		tags["date"] = fmt.Sprintf("%d", m.Year())
	}
	if track, _ := m.Track(); track > 0 {
		tags["tracknumber"] = fmt.Sprintf("%d", track)
	}
	if disc, _ := m.Disc(); disc > 0 {
		tags["discnumber"] = fmt.Sprintf("%d", disc)
	}

	// length is not part of dhowden/tag's surface; pick it out of the
	// raw frame map when a TLEN (or equivalent) frame is present
	if raw := m.Raw(); raw != nil {
		for _, key := range []string{"TLEN", "LENGTH", "length"} {
			if val, ok := raw[key]; ok {
				if s, ok := val.(string); ok && s != "" {
					tags["length"] = s
					break
				}
			}
		}
	}

	return tags, nil
}

// MissingTags returns the recognized keys absent from tags.
// A key present with an empty value counts as missing.
func MissingTags(tags map[string]string) []string {
	var missing []string
	for _, key := range RecognizedTags {
		if tags[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// WriteTags writes tag values to an audio file via an ffmpeg copy-codec
// rewrite. Empty and unrecognized keys are dropped; they never fail the
// write of the remaining fields.
func WriteTags(path string, tags map[string]string) error {
	if len(tags) == 0 {
		util.DebugLog("No tags to write for %s", path)
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file does not exist: %w", err)
	}

	tagArgs := BuildTagArgs(tags)
	if len(tagArgs) == 0 {
		return nil
	}
	args := append([]string{"-i", path}, tagArgs...)

	tempPath := path + ".tagged"
	args = append(args,
		"-c", "copy", // don't re-encode
		"-y",
		tempPath,
	)

	cmd := exec.Command("ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("ffmpeg failed: %w (output: %s)", err, string(output))
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace tagged file: %w", err)
	}

	util.DebugLog("Wrote %d tags to: %s", len(tagArgs)/2, path)
	return nil
}

// ffmpegTagKeys maps recognized tag keys to ffmpeg -metadata keys
var ffmpegTagKeys = map[string]string{
	"artist":      "artist",
	"genre":       "genre",
	"title":       "title",
	"album":       "album",
	"date":        "date",
	"tracknumber": "track",
	"composer":    "composer",
	"albumartist": "album_artist",
	"discnumber":  "disc",
	"length":      "TLEN",
	"comment":     "comment",
}

// BuildTagArgs converts a tag map to ffmpeg -metadata arguments, in
// recognized-key order
func BuildTagArgs(tags map[string]string) []string {
	var args []string
	for _, key := range RecognizedTags {
		value := tags[key]
		if value == "" {
			continue
		}
		if ffKey, ok := ffmpegTagKeys[key]; ok {
			args = append(args, "-metadata", fmt.Sprintf("%s=%s", ffKey, value))
		}
	}
	return args
}

// ValidateFFmpeg checks if ffmpeg is available
func ValidateFFmpeg() error {
	cmd := exec.Command("ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}
