package tui

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/billmal071/booksearch/internal/launch"
	"github.com/billmal071/booksearch/internal/loader"
)

// Empty state messages
const (
	MsgHowTo       = "Type a query and press enter to search Google Books."
	MsgNoInternet  = "No internet connection."
	MsgBadResponse = "Bad response from server."
	MsgNoBooks     = "No books found."
)

// EmptyStateText picks the text shown when the list has nothing to display.
// The first delivery after startup only ever shows the usage hint.
func EmptyStateText(res loader.Result, firstLoad bool) string {
	switch {
	case firstLoad, strings.TrimSpace(res.Query) == "":
		return MsgHowTo
	case res.StatusCode == 0:
		return MsgNoInternet
	case res.StatusCode != http.StatusOK:
		return MsgBadResponse
	case len(res.Books) == 0:
		return MsgNoBooks
	default:
		return ""
	}
}

// loadedMsg is sent when a loader task completes
type loadedMsg struct {
	task   *loader.Task
	result loader.Result
}

func waitForTask(t *loader.Task) tea.Cmd {
	return func() tea.Msg {
		res, _ := t.Wait(context.Background())
		return loadedMsg{task: t, result: res}
	}
}

type focus int

const (
	focusInput focus = iota
	focusList
)

// SearchOptions configures a SearchModel
type SearchOptions struct {
	// InitialQuery is searched immediately instead of the empty first load
	InitialQuery string
	// Opener shows a book's info page; defaults to launch.URL
	Opener launch.Opener
	// Copy puts text on the clipboard; defaults to clipboard.WriteAll
	Copy func(string) error
	// OnResult is called for every delivered user search
	OnResult func(loader.Result)
}

// SearchModel is the Bubble Tea model for the search screen. All data comes
// from the loader, so a fresh model picks up where a previous one left off.
type SearchModel struct {
	loader  *loader.Loader
	opts    SearchOptions
	input   textinput.Model
	spinner spinner.Model
	list    list.Model

	task      *loader.Task
	loading   bool
	firstLoad bool
	message   string
	status    string
	focus     focus
	quitting  bool
}

// NewSearchModel creates the search screen over l
func NewSearchModel(l *loader.Loader, opts SearchOptions) SearchModel {
	if opts.Opener == nil {
		opts.Opener = launch.URL
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.Placeholder = "Search books"
	ti.Prompt = "🔍 "
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AccentStyle

	lst := list.New(nil, BookDelegate{}, 80, 20)
	lst.Title = "Results"
	lst.SetShowStatusBar(false)
	lst.SetFilteringEnabled(false)
	lst.SetShowHelp(false)
	lst.Styles.Title = TitleStyle

	m := SearchModel{
		loader:    l,
		opts:      opts,
		input:     ti,
		spinner:   sp,
		list:      lst,
		firstLoad: true,
		message:   MsgHowTo,
	}

	if q := strings.TrimSpace(opts.InitialQuery); q != "" {
		m.firstLoad = false
		m.input.SetValue(q)
		m.start(l.Restart(q))
		return m
	}

	if res, ok := l.Current(); ok {
		m.firstLoad = false
		m.input.SetValue(res.Query)
		m.show(res, false)
	}

	m.task = l.Init()
	if isDone(m.task) {
		// The empty first load already finished before anyone watched it
		m.firstLoad = false
	} else {
		m.loading = true
	}

	return m
}

func isDone(t *loader.Task) bool {
	select {
	case <-t.Done():
		return true
	default:
		return false
	}
}

func (m *SearchModel) start(t *loader.Task) {
	m.task = t
	m.loading = true
	m.message = ""
	m.status = ""
	m.list.SetItems(nil)
}

func (m *SearchModel) show(res loader.Result, firstLoad bool) {
	m.message = EmptyStateText(res, firstLoad)

	var items []list.Item
	if !firstLoad {
		items = make([]list.Item, len(res.Books))
		for i, b := range res.Books {
			items[i] = BookItem{Book: b}
		}
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("Results for %q", res.Query)
}

func (m SearchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.loading {
		cmds = append(cmds, waitForTask(m.task), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case loadedMsg:
		// Results of a superseded search are ignored
		if msg.task != m.task {
			return m, nil
		}
		m.loading = false
		first := m.firstLoad
		m.firstLoad = false
		m.show(msg.result, first)
		if !first && strings.TrimSpace(msg.result.Query) != "" && m.opts.OnResult != nil {
			m.opts.OnResult(msg.result)
		}
		if len(m.list.Items()) > 0 {
			m.setFocus(focusList)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, max(msg.Height-8, 5))
		m.input.Width = max(msg.Width-6, 10)
		return m, nil
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m SearchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab", "shift+tab":
		if m.focus == focusInput && len(m.list.Items()) > 0 {
			m.setFocus(focusList)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil
	}

	if m.focus == focusInput {
		if msg.String() == "enter" {
			return m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "/":
		m.setFocus(focusInput)
		return m, nil
	case "enter":
		if item, ok := m.list.SelectedItem().(BookItem); ok {
			if err := m.opts.Opener(item.Book.InfoURL); err != nil {
				m.status = ErrorStyle.Render("Could not open link: " + err.Error())
			} else {
				m.status = SuccessStyle.Render("Opened " + item.Book.Title)
			}
		}
		return m, nil
	case "y":
		if item, ok := m.list.SelectedItem().(BookItem); ok {
			if err := m.opts.Copy(item.Book.InfoURL); err != nil {
				m.status = ErrorStyle.Render("Could not copy link: " + err.Error())
			} else {
				m.status = SuccessStyle.Render("Copied link to clipboard")
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m SearchModel) submit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return m, nil
	}
	m.start(m.loader.Restart(query))
	return m, tea.Batch(waitForTask(m.task), m.spinner.Tick)
}

func (m *SearchModel) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m SearchModel) View() string {
	if m.quitting {
		return ""
	}

	var view strings.Builder
	view.WriteString(TitleStyle.Render("Book Search"))
	view.WriteString("\n")
	view.WriteString(m.input.View())
	view.WriteString("\n\n")

	switch {
	case m.loading:
		view.WriteString(m.spinner.View() + " Searching...")
	case len(m.list.Items()) == 0:
		style := DimStyle
		if m.message != MsgHowTo {
			style = WarningStyle
		}
		view.WriteString(BoxStyle.Render(style.Render(m.message)))
	default:
		view.WriteString(m.list.View())
	}

	if m.status != "" {
		view.WriteString("\n" + m.status)
	}

	help := "enter: search • tab: results • esc: quit"
	if m.focus == focusList {
		help = "↑/↓: navigate • enter: open • y: copy link • /: search • q/esc: quit"
	}
	view.WriteString("\n" + HelpStyle.Render("  "+help))

	return view.String()
}

// Loading reports whether a search is in flight
func (m SearchModel) Loading() bool { return m.loading }

// Message returns the current empty state text
func (m SearchModel) Message() string { return m.message }

// Books returns the books currently listed
func (m SearchModel) Books() []BookItem {
	items := m.list.Items()
	out := make([]BookItem, 0, len(items))
	for _, it := range items {
		if b, ok := it.(BookItem); ok {
			out = append(out, b)
		}
	}
	return out
}

// RunSearch displays the search screen until the user quits
func RunSearch(l *loader.Loader, opts SearchOptions) error {
	p := tea.NewProgram(NewSearchModel(l, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
