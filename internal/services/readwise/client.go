// Package readwise imports highlights from Readwise into the snippet
// queue. Users highlight a source URL in Readwise and put a time range
// in the note; the importer turns those into snippet requests on a
// timer.
package readwise

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the public Readwise API root
const DefaultBaseURL = "https://readwise.io/api/v2"

// Book is a Readwise book (a podcast or channel the user follows)
type Book struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Highlight is one saved highlight. Text carries the source URL and
// Note optionally carries an M:SS-M:SS time range.
type Highlight struct {
	ID            int       `json:"id"`
	Text          string    `json:"text"`
	Note          string    `json:"note"`
	HighlightedAt time.Time `json:"highlighted_at"`
}

type listResponse[T any] struct {
	Results []T `json:"results"`
}

// Client is a minimal Readwise API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Readwise client. An empty baseURL selects the
// public API.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Books lists the user's books
func (c *Client) Books(ctx context.Context, token string) ([]Book, error) {
	return list[Book](ctx, c, token, "books", nil)
}

// Highlights lists the highlights of one book
func (c *Client) Highlights(ctx context.Context, token string, bookID int) ([]Highlight, error) {
	query := url.Values{"book_id": []string{strconv.Itoa(bookID)}}
	return list[Highlight](ctx, c, token, "highlights", query)
}

func list[T any](ctx context.Context, c *Client, token, path string, query url.Values) ([]T, error) {
	endpoint := fmt.Sprintf("%s/%s/", c.baseURL, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach readwise: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("readwise returned status %d for %s", resp.StatusCode, path)
	}

	var parsed listResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode readwise response: %w", err)
	}
	return parsed.Results, nil
}
