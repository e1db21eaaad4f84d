package meta

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeFilename(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean name unchanged",
			input:    "Bohemian Rhapsody.mp3",
			expected: "Bohemian Rhapsody.mp3",
		},
		{
			name:     "strips digits and punctuation",
			input:    "01 - Hotel California (Remastered 2013).mp3",
			expected: "Hotel California Remastered.mp3",
		},
		{
			name:     "strips bracket junk",
			input:    "Song Name [Official Video] {HD}!.flac",
			expected: "Song Name Official Video HD.flac",
		},
		{
			name:     "drops non-ASCII tokens",
			input:    "Habibi حبيبي Yalla.mp3",
			expected: "Habibi Yalla.mp3",
		},
		{
			name:     "collapses whitespace between kept tokens",
			input:    "too    many     spaces.ogg",
			expected: "too many spaces.ogg",
		},
		{
			name:     "extension preserved unchanged",
			input:    "track#1.M4A",
			expected: "track.M4A",
		},
		{
			name:     "no extension",
			input:    "plain name",
			expected: "plain name",
		},
		{
			name:     "all junk leaves empty base",
			input:    "12345!!!.mp3",
			expected: ".mp3",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeFilename(tc.input)
			if got != tc.expected {
				t.Errorf("NormalizeFilename(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeFilename_Idempotent(t *testing.T) {
	inputs := []string{
		"01 - Hotel California (Remastered).mp3",
		"Habibi حبيبي Yalla.mp3",
		"Song Name [Official Video].flac",
		"already clean.mp3",
	}

	for _, input := range inputs {
		once := NormalizeFilename(input)
		twice := NormalizeFilename(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

type fakeTranslator struct {
	result string
	err    error
	calls  int
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) (string, error) {
	f.calls++
	return f.result, f.err
}

func TestNormalizeFilename_TranslationFailureKeepsPartial(t *testing.T) {
	old := GlobalTranslator
	defer func() { GlobalTranslator = old }()

	fake := &fakeTranslator{err: errors.New("endpoint down")}
	GlobalTranslator = fake

	// Token filtering already produced ASCII, so translation must not
	// be consulted and the cleaned name is kept
	got := NormalizeFilename("Habibi حبيبي.mp3")
	if got != "Habibi.mp3" {
		t.Errorf("expected partial clean 'Habibi.mp3', got %q", got)
	}
	if fake.calls != 0 {
		t.Errorf("expected no translation calls for ASCII result, got %d", fake.calls)
	}
}

func TestSanitizeTitle(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{`AC/DC: Back in Black`, "ACDC Back in Black"},
		{`what?`, "what"},
		{`"quoted"`, "quoted"},
		{`a\b/c:d*e?f"g<h>i|j`, "abcdefghij"},
		{"clean title", "clean title"},
		{"  padded  ", "padded"},
	}

	for _, tc := range testCases {
		got := SanitizeTitle(tc.input)
		if got != tc.expected {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"a  b   c", "a b c"},
		{"\ttabbed\tout\t", "tabbed out"},
		{"single", "single"},
		{"", ""},
	}

	for _, tc := range testCases {
		got := CollapseWhitespace(tc.input)
		if got != tc.expected {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
