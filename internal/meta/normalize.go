package meta

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/franz/music-curator/internal/util"
)

// Translator turns non-English text into English, best-effort.
// A nil translator (or a failing one) never blocks normalization.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// GlobalTranslator is the optional translation backend.
// Set this when a translation endpoint is configured.
var GlobalTranslator Translator

// NormalizeFilename cleans a raw filename into a letters-and-spaces
// base name with its extension reattached unchanged.
//
// Cleaning steps: strip everything that is not a letter or whitespace,
// drop whitespace-delimited tokens containing non-ASCII runes, and if
// non-ASCII still remains, make one best-effort translation call.
// The function never fails; on translation errors the partially cleaned
// name is kept. Applying it twice yields the same result.
func NormalizeFilename(raw string) string {
	ext := filepath.Ext(raw)
	name := strings.TrimSuffix(raw, ext)

	name = norm.NFC.String(name)

	// Keep letters and whitespace only
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, name)

	// Drop tokens with non-ASCII runes
	fields := strings.Fields(name)
	kept := fields[:0]
	for _, f := range fields {
		if isASCII(f) {
			kept = append(kept, f)
		}
	}
	name = strings.Join(kept, " ")

	// Only reachable when the token filter is bypassed upstream,
	// but the translation fallback mirrors the cleaning contract:
	// try once, keep what we have on failure.
	if !isASCII(name) && GlobalTranslator != nil {
		translated, err := GlobalTranslator.Translate(context.Background(), name)
		if err != nil {
			util.ErrorLog("Translation failed for %q: %v", raw, err)
		} else if translated != "" {
			name = translated
		}
	}

	return strings.TrimSpace(name) + ext
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// invalidTitleChars are characters that are unsafe in filenames
var invalidTitleChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// SanitizeTitle removes characters that are unsafe in filenames from a
// resolver- or provider-supplied title
func SanitizeTitle(title string) string {
	return strings.TrimSpace(invalidTitleChars.ReplaceAllString(title, ""))
}

// CollapseWhitespace replaces runs of whitespace with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
