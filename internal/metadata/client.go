package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mediahub/internal/logging"
)

// ErrNoMatch is returned when the provider has no record for a title.
var ErrNoMatch = errors.New("metadata: no match")

// Match is the normalized result of a provider lookup.
type Match struct {
	Title       string
	Year        int
	Synopsis    string
	Genres      []string
	ProviderID  string
	PosterURL   string
	BackdropURL string
	// Collection is the provider's series grouping, empty when the title
	// does not belong to one.
	CollectionID   string
	CollectionName string
}

// Client queries an external movie-metadata provider over HTTP. A zero
// API key disables lookups; every call then returns ErrNoMatch.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a provider client. baseURL may be empty to use the
// provider's public endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://www.omdbapi.com/"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// providerResponse mirrors the provider's wire format.
type providerResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Plot       string `json:"Plot"`
	Genre      string `json:"Genre"`
	IMDBID     string `json:"imdbID"`
	Poster     string `json:"Poster"`
	Backdrop   string `json:"Backdrop"`
	Collection struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"Collection"`
}

// Lookup queries the provider by title and optional year and returns the
// best match. Returns ErrNoMatch when the provider has nothing, any other
// error for transport or decode failures.
func (c *Client) Lookup(ctx context.Context, title string, year int) (*Match, error) {
	if c.apiKey == "" {
		return nil, ErrNoMatch
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", title)
	if year > 0 {
		params.Set("y", fmt.Sprintf("%d", year))
	}

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata provider returned status %d", resp.StatusCode)
	}

	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode metadata response: %w", err)
	}

	if body.Response == "False" {
		logging.Debug("No metadata match for %q (%d): %s", title, year, body.Error)
		return nil, ErrNoMatch
	}

	match := &Match{
		Title:          strings.TrimSpace(body.Title),
		Synopsis:       cleanField(body.Plot),
		Genres:         splitGenres(body.Genre),
		ProviderID:     body.IMDBID,
		PosterURL:      cleanField(body.Poster),
		BackdropURL:    cleanField(body.Backdrop),
		CollectionID:   body.Collection.ID,
		CollectionName: body.Collection.Name,
	}
	if match.Title == "" {
		match.Title = title
	}

	// Year comes back as "1999" or "1999-2003" for series.
	fmt.Sscanf(body.Year, "%d", &match.Year)

	return match, nil
}

// cleanField normalizes the provider's "N/A" placeholder to empty.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if s == "N/A" {
		return ""
	}
	return s
}

func splitGenres(s string) []string {
	s = cleanField(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}
