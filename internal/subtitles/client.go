package subtitles

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mediahub/internal/logging"
)

// ErrNoSubtitles is returned when the provider has nothing for an item.
var ErrNoSubtitles = errors.New("subtitles: none found")

// Descriptor is one subtitle offered by the provider.
type Descriptor struct {
	Language string `json:"language"`
	URL      string `json:"url"`
}

// Client talks to the external subtitle provider. A zero API key disables
// lookups; Search then returns ErrNoSubtitles.
type Client struct {
	searchURL   string
	downloadURL string
	apiKey      string
	client      *http.Client
}

// NewClient creates a subtitle provider client. Empty URLs fall back to
// the provider's public endpoints.
func NewClient(searchURL, downloadURL, apiKey string) *Client {
	if searchURL == "" {
		searchURL = "https://api.subdl.com/api/v1/subtitles"
	}
	if downloadURL == "" {
		downloadURL = "https://dl.subdl.com"
	}
	return &Client{
		searchURL:   searchURL,
		downloadURL: downloadURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Search lists available subtitles for a provider title id, filtered to
// the given comma-separated language codes.
func (c *Client) Search(ctx context.Context, providerID, languages string) ([]Descriptor, error) {
	if c.apiKey == "" {
		return nil, ErrNoSubtitles
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("imdb_id", providerID)
	params.Set("languages", languages)
	params.Set("type", "movie")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build subtitle search: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subtitle search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subtitle provider returned status %d", resp.StatusCode)
	}

	var body struct {
		Subtitles []Descriptor `json:"subtitles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode subtitle response: %w", err)
	}

	if len(body.Subtitles) == 0 {
		return nil, ErrNoSubtitles
	}
	return body.Subtitles, nil
}

// Download fetches a subtitle archive and returns the text of the first
// .srt inside it. Returns ErrNoSubtitles when the archive holds none.
func (c *Client) Download(ctx context.Context, d Descriptor) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.downloadURL+d.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build subtitle download: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("subtitle download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("subtitle download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read subtitle archive: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("invalid subtitle archive: %w", err)
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".srt") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open archive entry: %w", err)
		}
		text, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read archive entry: %w", err)
		}
		return string(text), nil
	}

	logging.Debug("Subtitle archive for %s has no .srt entries", d.URL)
	return "", ErrNoSubtitles
}
