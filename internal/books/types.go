package books

import (
	"context"
	"strings"
)

// Unknown marks a rating or ratings count that was absent or not numeric
const Unknown = -1

// Book represents one Google Books search result
type Book struct {
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Rating       float64  `json:"rating"`
	RatingsCount int      `json:"ratings_count"`
	InfoURL      string   `json:"info_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Snippet      string   `json:"snippet,omitempty"`
}

// HasRating reports whether the average rating is known
func (b Book) HasRating() bool {
	return b.Rating != Unknown
}

// HasRatingsCount reports whether the ratings count is known
func (b Book) HasRatingsCount() bool {
	return b.RatingsCount != Unknown
}

// CoverURL returns the thumbnail URL without the curled page edge effect
func (b Book) CoverURL() string {
	return strings.Replace(b.ThumbnailURL, "&edge=curl", "", 1)
}

// Response is the outcome of a single search: the parsed books plus the
// HTTP status that produced them. StatusCode is 0 when no HTTP exchange
// completed.
type Response struct {
	Books      []Book `json:"books"`
	StatusCode int    `json:"status_code"`
}

// Searcher runs one search
type Searcher interface {
	Search(ctx context.Context, query string) Response
}
