package books

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/billmal071/booksearch/internal/config"
	"github.com/billmal071/booksearch/internal/logger"
)

// Client searches the Google Books volumes endpoint
type Client struct {
	baseURL string
	fetcher *Fetcher
}

// NewClient creates a new client for the given endpoint
func NewClient(baseURL string, fetcher *Fetcher) *Client {
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	if fetcher == nil {
		fetcher = NewFetcher(FetcherOptions{})
	}
	return &Client{baseURL: baseURL, fetcher: fetcher}
}

// NewClientFromConfig creates a client from the application settings
func NewClientFromConfig() *Client {
	cfg := config.Get()
	return NewClient(cfg.GoogleBooks.BaseURL, NewFetcher(FetcherOptions{
		ConnectTimeout: cfg.Network.ConnectTimeout,
		ReadTimeout:    cfg.Network.ReadTimeout,
		UserAgent:      cfg.Network.UserAgent,
	}))
}

// QueryURL builds the search URL for query: spaces are removed and the rest
// is escaped into the q parameter of base.
func QueryURL(base, query string) (string, error) {
	u, err := parseRequestURL(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	params := u.Query()
	params.Set("q", stripSpaces(query))
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func stripSpaces(query string) string {
	return strings.ReplaceAll(query, " ", "")
}

// Search runs one search. An empty query returns an empty result without
// touching the network. Non-200 responses are not parsed.
func (c *Client) Search(ctx context.Context, query string) Response {
	empty := Response{Books: []Book{}}

	if stripSpaces(query) == "" {
		return empty
	}

	log := logger.WithComponent("client")

	queryURL, err := QueryURL(c.baseURL, query)
	if err != nil {
		log.Error().Err(err).Msg("Error creating URL")
		return empty
	}
	log.Info().Str("query", query).Str("url", queryURL).Msg("Searching")

	body, status := c.fetcher.Fetch(ctx, queryURL)
	if status != http.StatusOK {
		return Response{Books: []Book{}, StatusCode: status}
	}

	return Response{Books: Parse(body), StatusCode: status}
}
