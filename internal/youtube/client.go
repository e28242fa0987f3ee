// Package youtube implements the external song search against the YouTube
// Data API v3. Calls run behind a circuit breaker so a broken or
// quota-exhausted API degrades song requests without hammering the endpoint.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/sony/gobreaker"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	requestTimeout = 10 * time.Second
	maxResults     = 10

	// musicCategoryID narrows search.list to the Music category.
	musicCategoryID = "10"
)

// Client queries the YouTube Data API search endpoint. It implements
// domain.SearchClient.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a search client authenticated with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "youtube-search",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Query runs a search.list call and returns ranked candidates. An open
// circuit or a non-200 response surfaces as an error; an empty result set is
// not an error.
func (c *Client) Query(ctx context.Context, text string) ([]domain.SearchCandidate, error) {
	v, err := c.breaker.Execute(func() (any, error) {
		return c.search(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.SearchCandidate), nil
}

func (c *Client) search(ctx context.Context, text string) ([]domain.SearchCandidate, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("videoCategoryId", musicCategoryID)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("q", text)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, body)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	candidates := make([]domain.SearchCandidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID.VideoID == "" {
			continue
		}
		thumb := item.Snippet.Thumbnails.Medium.URL
		if thumb == "" {
			thumb = item.Snippet.Thumbnails.Default.URL
		}
		candidates = append(candidates, domain.SearchCandidate{
			ExternalMediaID: item.ID.VideoID,
			Title:           item.Snippet.Title,
			ChannelName:     item.Snippet.ChannelTitle,
			ThumbnailURL:    thumb,
		})
	}
	return candidates, nil
}
