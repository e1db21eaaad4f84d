package meta

import (
	"errors"
	"reflect"
	"testing"

	"github.com/franz/music-curator/internal/util"
)

func TestIsAudioFile(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"/music/song.mp3", true},
		{"/music/song.MP3", true},
		{"/music/song.flac", true},
		{"/music/song.m4a", true},
		{"/music/song.opus", true},
		{"/music/song.wav", true},
		{"/music/cover.jpg", false},
		{"/music/notes.txt", false},
		{"/music/song.mp3.part", false},
		{"/music/noext", false},
	}

	for _, tc := range testCases {
		if got := IsAudioFile(tc.path); got != tc.expected {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tc.path, got, tc.expected)
		}
	}
}

func TestMissingTags(t *testing.T) {
	testCases := []struct {
		name     string
		tags     map[string]string
		expected []string
	}{
		{
			name: "complete set has nothing missing",
			tags: map[string]string{
				"artist": "a", "genre": "g", "title": "t", "album": "al",
				"date": "2020", "tracknumber": "1", "composer": "c",
				"albumartist": "aa", "discnumber": "1", "length": "180000",
				"comment": "x",
			},
			expected: nil,
		},
		{
			name:     "empty map misses everything",
			tags:     map[string]string{},
			expected: []string{"artist", "genre", "title", "album", "date", "tracknumber", "composer", "albumartist", "discnumber", "length", "comment"},
		},
		{
			name: "empty value counts as missing",
			tags: map[string]string{
				"artist": "a", "genre": "", "title": "t", "album": "al",
				"date": "2020", "tracknumber": "1", "composer": "c",
				"albumartist": "aa", "discnumber": "1", "length": "180000",
				"comment": "x",
			},
			expected: []string{"genre"},
		},
		{
			name: "unrecognized keys are ignored",
			tags: map[string]string{
				"artist": "a", "genre": "g", "title": "t", "album": "al",
				"date": "2020", "tracknumber": "1", "composer": "c",
				"albumartist": "aa", "discnumber": "1", "length": "180000",
				"comment": "x", "mood": "happy",
			},
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MissingTags(tc.tags)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("MissingTags() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestBuildTagArgs(t *testing.T) {
	tags := map[string]string{
		"artist":      "Queen",
		"title":       "Bohemian Rhapsody",
		"tracknumber": "11",
		"albumartist": "Queen",
		"discnumber":  "1",
		"length":      "354000",
		"genre":       "",
		"bogus":       "dropped",
	}

	args := BuildTagArgs(tags)

	// Recognized order, empty and unknown keys dropped, ffmpeg key
	// names substituted
	expected := []string{
		"-metadata", "artist=Queen",
		"-metadata", "title=Bohemian Rhapsody",
		"-metadata", "track=11",
		"-metadata", "album_artist=Queen",
		"-metadata", "disc=1",
		"-metadata", "TLEN=354000",
	}

	if !reflect.DeepEqual(args, expected) {
		t.Errorf("BuildTagArgs() = %v, want %v", args, expected)
	}
}

func TestBuildTagArgs_Empty(t *testing.T) {
	if args := BuildTagArgs(nil); args != nil {
		t.Errorf("expected nil args for nil tags, got %v", args)
	}
	if args := BuildTagArgs(map[string]string{"unknown": "v"}); args != nil {
		t.Errorf("expected nil args for unrecognized tags, got %v", args)
	}
}

func TestReadTags_MissingFile(t *testing.T) {
	if _, err := ReadTags("/nonexistent/file.mp3"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadTags_UnsupportedExtension(t *testing.T) {
	if _, err := ReadTags("/tmp/notes.txt"); !errors.Is(err, util.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestWriteTags_NoTags(t *testing.T) {
	// An empty tag set is a no-op, even for a missing file
	if err := WriteTags("/nonexistent/file.mp3", nil); err != nil {
		t.Errorf("expected nil error for empty tag set, got %v", err)
	}
}
