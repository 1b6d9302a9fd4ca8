package tui

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/billmal071/booksearch/internal/db"
)

// ErrNoHistory is returned when there is nothing to pick from
var ErrNoHistory = errors.New("no search history available")

// HistoryItem is one past query in the picker
type HistoryItem struct {
	History *db.SearchHistory
}

func (h HistoryItem) Title() string       { return h.History.Query }
func (h HistoryItem) FilterValue() string { return h.History.Query }

// Description summarises how the search went, e.g. "7 results | ok | 2024-03-01 12:30"
func (h HistoryItem) Description() string {
	return strings.Join([]string{
		fmt.Sprintf("%d results", h.History.ResultCount),
		statusLabel(h.History.StatusCode),
		h.History.CreatedAt.Local().Format("2006-01-02 15:04"),
	}, " | ")
}

func statusLabel(code int) string {
	switch code {
	case 0:
		return "offline"
	case http.StatusOK:
		return "ok"
	default:
		return fmt.Sprintf("HTTP %d", code)
	}
}

type historyDelegate struct{}

func (historyDelegate) Height() int                             { return 2 }
func (historyDelegate) Spacing() int                            { return 0 }
func (historyDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (historyDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	h, ok := item.(HistoryItem)
	if !ok {
		return
	}

	query := truncate(h.History.Query, 70)
	line := NormalStyle.Render("    " + query)
	if index == m.Index() {
		line = SelectedStyle.Render("  ➤ " + query)
	}

	fmt.Fprint(w, line+"\n"+DimStyle.Render("      "+h.Description()))
}

// HistorySelectorModel lets the user pick a past query to run again
type HistorySelectorModel struct {
	list     list.Model
	selected *db.SearchHistory
	quitting bool
}

// NewHistorySelector creates a picker over history, newest first
func NewHistorySelector(history []*db.SearchHistory) HistorySelectorModel {
	items := make([]list.Item, len(history))
	for i, h := range history {
		items[i] = HistoryItem{History: h}
	}

	l := list.New(items, historyDelegate{}, 80, 20)
	l.Title = "Search History"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle

	return HistorySelectorModel{list: l}
}

func (m HistorySelectorModel) Init() tea.Cmd { return nil }

func (m HistorySelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// While a filter is being typed every key belongs to it
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(HistoryItem); ok {
				m.selected = item.History
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, max(msg.Height-4, 5))
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m HistorySelectorModel) View() string {
	switch {
	case m.selected != nil:
		return SuccessStyle.Render("\n  Searching again: " + m.selected.Query + "\n")
	case m.quitting:
		return DimStyle.Render("\n  Cancelled.\n")
	}
	return "\n" + m.list.View() + "\n" + HelpStyle.Render("  ↑/↓: navigate • enter: search again • /: filter • q: cancel")
}

// Selected returns the picked entry, or nil when cancelled
func (m HistorySelectorModel) Selected() *db.SearchHistory {
	return m.selected
}

// RunHistorySelector shows the picker and returns the chosen entry
func RunHistorySelector(history []*db.SearchHistory) (*db.SearchHistory, error) {
	if len(history) == 0 {
		return nil, ErrNoHistory
	}

	final, err := tea.NewProgram(NewHistorySelector(history)).Run()
	if err != nil {
		return nil, err
	}
	return final.(HistorySelectorModel).Selected(), nil
}
