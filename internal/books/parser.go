package books

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/billmal071/booksearch/internal/logger"
)

var (
	// ErrNoItems indicates a response without an items array, which is how
	// the API reports a search with zero matches
	ErrNoItems = errors.New("response has no items")
	// ErrMissingField indicates a required volume field is absent or not a string
	ErrMissingField = errors.New("missing required field")
)

type volumeList struct {
	Items *[]json.RawMessage `json:"items"`
}

type volume struct {
	VolumeInfo *volumeInfo     `json:"volumeInfo"`
	SearchInfo json.RawMessage `json:"searchInfo"`
}

// Optional fields stay raw so a wrong type degrades to a default instead of
// failing the item.
type volumeInfo struct {
	Title         *string         `json:"title"`
	Authors       json.RawMessage `json:"authors"`
	AverageRating json.RawMessage `json:"averageRating"`
	RatingsCount  json.RawMessage `json:"ratingsCount"`
	InfoLink      *string         `json:"infoLink"`
	ImageLinks    *struct {
		SmallThumbnail *string `json:"smallThumbnail"`
	} `json:"imageLinks"`
}

// Parse extracts books from a volumes response. An empty body yields nil.
// Problems are logged and whatever was decoded before the problem is returned.
func Parse(body string) []Book {
	books, err := Decode(body)
	if err != nil {
		log := logger.WithComponent("parser")
		if errors.Is(err, ErrNoItems) {
			log.Debug().Msg("No items in response")
		} else {
			log.Warn().Err(err).Int("parsed", len(books)).Msg("Problem parsing the book JSON results")
		}
	}
	return books
}

// Decode is the strict form of Parse. It returns nil, nil for an empty body.
// Otherwise the slice is never nil: on error it holds the books decoded
// before the failing item.
func Decode(body string) ([]Book, error) {
	if body == "" {
		return nil, nil
	}

	books := []Book{}

	var list volumeList
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		return books, fmt.Errorf("decode volume list: %w", err)
	}
	if list.Items == nil {
		return books, ErrNoItems
	}

	for i, raw := range *list.Items {
		book, err := decodeVolume(raw)
		if err != nil {
			return books, fmt.Errorf("item %d: %w", i, err)
		}
		books = append(books, book)
	}

	return books, nil
}

func decodeVolume(raw json.RawMessage) (Book, error) {
	var v volume
	if err := json.Unmarshal(raw, &v); err != nil {
		return Book{}, err
	}
	if v.VolumeInfo == nil {
		return Book{}, fmt.Errorf("%w: volumeInfo", ErrMissingField)
	}
	info := v.VolumeInfo

	title, err := requiredString("title", info.Title)
	if err != nil {
		return Book{}, err
	}
	infoURL, err := requiredString("infoLink", info.InfoLink)
	if err != nil {
		return Book{}, err
	}
	if info.ImageLinks == nil {
		return Book{}, fmt.Errorf("%w: imageLinks", ErrMissingField)
	}
	thumbnail, err := requiredString("imageLinks.smallThumbnail", info.ImageLinks.SmallThumbnail)
	if err != nil {
		return Book{}, err
	}

	authors, err := decodeAuthors(info.Authors)
	if err != nil {
		return Book{}, err
	}

	return Book{
		Title:        title,
		Authors:      authors,
		Rating:       optionalFloat(info.AverageRating),
		RatingsCount: optionalInt(info.RatingsCount),
		InfoURL:      infoURL,
		ThumbnailURL: thumbnail,
		Snippet:      decodeSnippet(v.SearchInfo),
	}, nil
}

func requiredString(name string, v *string) (string, error) {
	if v == nil || *v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return *v, nil
}

// decodeAuthors treats anything but an array as no authors. Array entries
// must be strings.
func decodeAuthors(raw json.RawMessage) ([]string, error) {
	authors := []string{}

	var entries []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return authors, nil
	}

	for i, entry := range entries {
		var name string
		if err := json.Unmarshal(entry, &name); err != nil {
			return authors, fmt.Errorf("authors[%d]: %w", i, err)
		}
		authors = append(authors, name)
	}
	return authors, nil
}

// scalar decodes a JSON number or numeric string. Other JSON types yield ok=false.
func scalar(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}

	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := cast.ToFloat64E(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func optionalFloat(raw json.RawMessage) float64 {
	f, ok := scalar(raw)
	if !ok {
		return Unknown
	}
	return f
}

func optionalInt(raw json.RawMessage) int {
	f, ok := scalar(raw)
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return Unknown
	}
	return int(f)
}

// decodeSnippet returns searchInfo.textSnippet as plain text
func decodeSnippet(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var info struct {
		TextSnippet string `json:"textSnippet"`
	}
	if err := json.Unmarshal(raw, &info); err != nil || info.TextSnippet == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(info.TextSnippet))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
