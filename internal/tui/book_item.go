package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/billmal071/booksearch/internal/books"
)

const notAvailable = "N/A"

// BookItem wraps a Book for the list component
type BookItem struct {
	Book books.Book
}

func (b BookItem) Title() string { return b.Book.Title }

func (b BookItem) Description() string {
	return strings.Join([]string{
		formatAuthors(b.Book.Authors),
		"rating " + formatRating(b.Book),
		formatRatingsCount(b.Book),
	}, " | ")
}

func (b BookItem) FilterValue() string { return b.Book.Title }

func formatAuthors(authors []string) string {
	if len(authors) == 0 {
		return notAvailable
	}
	return strings.Join(authors, ", ")
}

func formatRating(b books.Book) string {
	if !b.HasRating() {
		return notAvailable
	}
	return fmt.Sprintf("%.1f", b.Rating)
}

func formatRatingsCount(b books.Book) string {
	if !b.HasRatingsCount() {
		return notAvailable
	}
	return fmt.Sprintf("(%d)", b.RatingsCount)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// BookDelegate handles rendering of book items
type BookDelegate struct{}

func (d BookDelegate) Height() int                             { return 2 }
func (d BookDelegate) Spacing() int                            { return 1 }
func (d BookDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d BookDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	book, ok := item.(BookItem)
	if !ok {
		return
	}

	title := truncate(book.Book.Title, 70)

	var str string
	if index == m.Index() {
		str = SelectedStyle.Render(fmt.Sprintf("  ➤ %d. %s", index+1, title))
	} else {
		str = NormalStyle.Render(fmt.Sprintf("    %d. %s", index+1, title))
	}
	str += "\n" + DimStyle.Render(fmt.Sprintf("      %s", book.Description()))

	fmt.Fprint(w, str)
}
