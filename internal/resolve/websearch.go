package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/franz/music-curator/internal/util"
)

const (
	// webSearchBaseURL is the Google Custom Search REST endpoint
	webSearchBaseURL = "https://www.googleapis.com/customsearch/v1"

	webSearchUserAgent = "music-curator/1.0 (https://github.com/franz/music-curator)"
)

// webSearchResponse is the subset of the search API response we read
type webSearchResponse struct {
	Items []webSearchItem `json:"items"`
}

type webSearchItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

var (
	// "by Artist Name" in a result snippet
	snippetArtistRe = regexp.MustCompile(`by ([^\n\r]+)`)

	// a quoted song title in a result snippet
	snippetTitleRe = regexp.MustCompile(`"([^"]+)"`)
)

// WebSearchProvider resolves metadata from web search result snippets.
// It is a weak, last-resort source: only artist and title can be
// gleaned, and only heuristically.
type WebSearchProvider struct {
	httpClient *http.Client
	apiKey     string
	engineID   string
}

// NewWebSearchProvider creates the provider with the given credentials.
// Empty credentials make the provider unavailable rather than failing.
func NewWebSearchProvider(apiKey, engineID string) *WebSearchProvider {
	return &WebSearchProvider{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:   apiKey,
		engineID: engineID,
	}
}

// Name identifies the provider in logs
func (p *WebSearchProvider) Name() string { return "websearch" }

// Available reports whether both credentials are configured
func (p *WebSearchProvider) Available() bool {
	return p.apiKey != "" && p.engineID != ""
}

// Search queries the web search API and extracts artist/title hints
// from the first result's snippet
func (p *WebSearchProvider) Search(ctx context.Context, query string) (Candidate, error) {
	if !p.Available() {
		return nil, util.ErrNoCredentials
	}

	params := url.Values{}
	params.Set("q", query+" mp3 song")
	params.Set("key", p.apiKey)
	params.Set("cx", p.engineID)

	urlStr := fmt.Sprintf("%s?%s", webSearchBaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", webSearchUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var result webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, nil
	}

	snippet := result.Items[0].Snippet

	c := Candidate{}
	if m := snippetArtistRe.FindStringSubmatch(snippet); m != nil {
		// Only the first token: snippets run on into unrelated text
		c["artist"] = strings.SplitN(strings.TrimSpace(m[1]), " ", 2)[0]
	}
	if m := snippetTitleRe.FindStringSubmatch(snippet); m != nil {
		c["title"] = m[1]
	} else {
		c["title"] = strings.TrimSuffix(filepath.Base(query), filepath.Ext(query))
	}

	return c, nil
}
