package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ytSearchResult is the subset of yt-dlp's JSON output we read
type ytSearchResult struct {
	Entries []ytEntry `json:"entries"`
}

// ytEntry is one search hit
type ytEntry struct {
	Title       string   `json:"title"`
	Uploader    string   `json:"uploader"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album"`
	AlbumArtist string   `json:"album_artist"`
	Composer    string   `json:"composer"`
	Genre       string   `json:"genre"`
	ReleaseDate string   `json:"release_date"`
	UploadDate  string   `json:"upload_date"`
	Track       string   `json:"track"`
	DiscNumber  int      `json:"disc_number"`
	Duration    float64  `json:"duration"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
}

// YTSearchProvider resolves metadata by searching a video site through
// the yt-dlp binary (info extraction only, no download)
type YTSearchProvider struct {
	binary string
}

// NewYTSearchProvider creates the provider. An empty binary defaults
// to "yt-dlp" on PATH.
func NewYTSearchProvider(binary string) *YTSearchProvider {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTSearchProvider{binary: binary}
}

// Name identifies the provider in logs
func (p *YTSearchProvider) Name() string { return "ytsearch" }

// Available reports whether the yt-dlp binary can be found
func (p *YTSearchProvider) Available() bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// Search runs a one-result video search and maps the hit onto the
// recognized tag keys. Numeric fields are coerced to strings.
func (p *YTSearchProvider) Search(ctx context.Context, query string) (Candidate, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"--dump-single-json",
		"--flat-playlist",
		"--no-warnings",
		"--quiet",
		fmt.Sprintf("ytsearch1:%s", query),
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search failed: %w", err)
	}

	var result ytSearchResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}
	if len(result.Entries) == 0 {
		return nil, nil
	}

	entry := result.Entries[0]

	c := Candidate{
		"title":       entry.Title,
		"genre":       entry.Genre,
		"album":       entry.Album,
		"composer":    entry.Composer,
		"albumartist": entry.AlbumArtist,
		"tracknumber": entry.Track,
		"comment":     firstLine(entry.Description),
	}

	// Uploader stands in for artist when no explicit artist credit exists
	if entry.Artist != "" {
		c["artist"] = entry.Artist
	} else {
		c["artist"] = entry.Uploader
	}

	if entry.ReleaseDate != "" {
		c["date"] = entry.ReleaseDate
	} else {
		c["date"] = entry.UploadDate
	}

	// Site categories stand in for a missing genre credit; the
	// classifier treats either as a textual signal
	if c["genre"] == "" && len(entry.Categories) > 0 {
		c["genre"] = strings.Join(entry.Categories, ", ")
	}

	if entry.DiscNumber > 0 {
		c["discnumber"] = strconv.Itoa(entry.DiscNumber)
	}
	if entry.Duration > 0 {
		c["length"] = strconv.Itoa(int(entry.Duration))
	}

	return c, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
