// Package translate provides a best-effort transliteration client for
// filenames that survive normalization with no ASCII left. Failures
// are expected and callers fall back to the untranslated text.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEndpoint = "https://libretranslate.com/translate"

// Client calls a LibreTranslate-compatible endpoint to render foreign
// text into English
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// Option configures a Client
type Option func(*Client)

// WithEndpoint points the client at a self-hosted instance
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithAPIKey sets the API key sent with each request
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates a translation client. The timeout is short on
// purpose: translation sits inline in filename normalization and must
// never stall a batch.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoint: defaultEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate renders text into English, auto-detecting the source
// language
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(translateRequest{
		Q:      text,
		Source: "auto",
		Target: "en",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var result translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if result.TranslatedText == "" {
		return "", fmt.Errorf("empty translation for %q", text)
	}

	return result.TranslatedText, nil
}
