package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bindery/internal/queueapi"
)

var errNoCatalog = errors.New("search is not available")

// searchState holds the search overlay and the details modal.
type searchState struct {
	input      textinput.Model
	focusInput bool
	query      string
	searching  bool
	results    []queueapi.BookSummary
	selected   int
	err        error

	details        queueapi.BookDetails
	detailsID      string
	loadingDetails bool
	detailsErr     error
}

type searchResultsMsg struct {
	query   string
	results []queueapi.BookSummary
	err     error
}

type detailsMsg struct {
	id      string
	details queueapi.BookDetails
	err     error
}

func (m *Model) openSearch() tea.Cmd {
	m.overlay = overlaySearch
	m.search.focusInput = true
	return m.search.input.Focus()
}

func (m *Model) closeSearch() {
	m.overlay = overlayNone
	m.search.focusInput = false
	m.search.input.Blur()
}

// handleSearchKey routes keys to the input while it is focused and to the
// result list otherwise.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape) {
		m.closeSearch()
		return m, nil
	}

	if m.search.focusInput {
		if key.Matches(msg, m.keys.Confirm) {
			return m, m.submitSearch()
		}
		var cmd tea.Cmd
		m.search.input, cmd = m.search.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.search.focusInput = true
		return m, m.search.input.Focus()
	case key.Matches(msg, m.keys.Up):
		m.search.selected = max(m.search.selected-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.search.selected = max(min(m.search.selected+1, len(m.search.results)-1), 0)
	case key.Matches(msg, m.keys.Confirm):
		if book, ok := m.selectedBook(); ok {
			return m, m.enqueue(string(book.ID))
		}
	case key.Matches(msg, m.keys.Details):
		if book, ok := m.selectedBook(); ok {
			return m, m.openDetails(string(book.ID))
		}
	}
	return m, nil
}

func (m *Model) submitSearch() tea.Cmd {
	q := strings.TrimSpace(m.search.input.Value())
	if q == "" {
		return nil
	}
	m.search.query = q
	m.search.searching = true
	m.search.err = nil
	m.search.focusInput = false
	m.search.input.Blur()
	return searchCmd(m.ctx, m.catalog, q)
}

func (m Model) handleSearchResults(msg searchResultsMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.search.query {
		return m, nil
	}
	m.search.searching = false
	m.search.err = msg.err
	m.search.results = msg.results
	m.search.selected = 0
	if msg.err != nil {
		m.logger.Warn("search failed", slog.String("query", msg.query), slog.Any("error", msg.err))
	}
	return m, nil
}

func (m Model) selectedBook() (queueapi.BookSummary, bool) {
	if m.search.selected < 0 || m.search.selected >= len(m.search.results) {
		return queueapi.BookSummary{}, false
	}
	book := m.search.results[m.search.selected]
	return book, strings.TrimSpace(string(book.ID)) != ""
}

func (m *Model) enqueue(id string) tea.Cmd {
	if m.dispatcher == nil {
		return nil
	}
	return tea.Batch(m.startRequest(), enqueueCmd(m.ctx, m.dispatcher, id))
}

func (m *Model) openDetails(id string) tea.Cmd {
	m.overlay = overlayDetails
	m.search.detailsID = id
	m.search.details = queueapi.BookDetails{}
	m.search.detailsErr = nil
	m.search.loadingDetails = true
	return detailsCmd(m.ctx, m.catalog, id)
}

func (m Model) handleDetails(msg detailsMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.search.detailsID {
		return m, nil
	}
	m.search.loadingDetails = false
	m.search.details = msg.details
	m.search.detailsErr = msg.err
	if msg.err != nil {
		m.logger.Warn("book details failed", slog.String("book_id", msg.id), slog.Any("error", msg.err))
	}
	return m, nil
}

func (m Model) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = overlaySearch
	case key.Matches(msg, m.keys.Confirm):
		if m.search.detailsID != "" {
			return m, m.enqueue(m.search.detailsID)
		}
	}
	return m, nil
}

func searchCmd(ctx context.Context, catalog Catalog, q string) tea.Cmd {
	return func() tea.Msg {
		if catalog == nil {
			return searchResultsMsg{query: q, err: errNoCatalog}
		}
		results, err := catalog.Search(ctx, queueapi.SearchQuery{Query: q})
		return searchResultsMsg{query: q, results: results, err: err}
	}
}

func detailsCmd(ctx context.Context, catalog Catalog, id string) tea.Cmd {
	return func() tea.Msg {
		if catalog == nil {
			return detailsMsg{id: id, err: errNoCatalog}
		}
		details, err := catalog.Info(ctx, id)
		return detailsMsg{id: id, details: details, err: err}
	}
}

// renderSearch renders the search overlay.
func (m Model) renderSearch() string {
	styles := m.theme.Styles()
	width := m.modalWidth()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Search books"))
	b.WriteString("\n\n")
	b.WriteString(m.search.input.View())
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", width-6)))
	b.WriteString("\n")

	switch {
	case m.search.searching:
		b.WriteString(styles.MutedText.Render("Searching..."))
	case m.search.err != nil:
		b.WriteString(styles.DangerText.Render("Search failed."))
	case m.search.query == "":
		b.WriteString(styles.MutedText.Render("Type a query and press enter."))
	case len(m.search.results) == 0:
		b.WriteString(styles.MutedText.Render("No results."))
	default:
		b.WriteString(m.renderResults(width - 6))
	}

	b.WriteString("\n\n")
	if m.toast.text != "" {
		style := styles.SuccessText
		if m.toast.danger {
			style = styles.DangerText
		}
		b.WriteString(style.Render(m.toast.text))
	} else {
		b.WriteString(styles.FaintText.Render("enter queue · d details · / edit · esc close"))
	}

	return m.placeModal(b.String(), width)
}

func (m Model) renderResults(width int) string {
	styles := m.theme.Styles()
	rows := max(m.height-16, 3)
	start := max(min(m.search.selected-rows/2, len(m.search.results)-rows), 0)
	end := min(start+rows, len(m.search.results))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		book := m.search.results[i]
		selected := i == m.search.selected && !m.search.focusInput
		line := cursor(selected) + " " + truncate(displayBook(book), width-2)
		if selected {
			lines = append(lines, styles.Selected.Width(width).Render(line))
			continue
		}
		lines = append(lines, styles.Text.Render(line))
	}
	return strings.Join(lines, "\n")
}

// displayBook formats a result as "Title - Author (2019, epub, 2 MB)".
func displayBook(book queueapi.BookSummary) string {
	title := string(book.Title)
	if strings.TrimSpace(title) == "" {
		title = "-"
	}
	if author := strings.TrimSpace(string(book.Author)); author != "" {
		title += " - " + author
	}
	var meta []string
	for _, v := range []queueapi.Text{book.Year, book.Format, book.Size} {
		if s := strings.TrimSpace(string(v)); s != "" {
			meta = append(meta, s)
		}
	}
	if len(meta) > 0 {
		title += " (" + strings.Join(meta, ", ") + ")"
	}
	return title
}

// renderDetails renders the book details modal.
func (m Model) renderDetails() string {
	styles := m.theme.Styles()
	width := m.modalWidth()

	var b strings.Builder
	switch {
	case m.search.loadingDetails:
		b.WriteString(styles.MutedText.Render("Loading details..."))
	case m.search.detailsErr != nil:
		b.WriteString(styles.DangerText.Render("Failed to load book details."))
	default:
		d := m.search.details
		b.WriteString(styles.Text.Bold(true).Render(truncate(string(d.Title), width-6)))
		b.WriteString("\n\n")
		fields := [][2]string{
			{"Author", string(d.Author)},
			{"Publisher", string(d.Publisher)},
			{"Year", string(d.Year)},
			{"Language", string(d.Language)},
			{"Format", string(d.Format)},
			{"Size", string(d.Size)},
		}
		for _, k := range slices.Sorted(maps.Keys(d.Info)) {
			fields = append(fields, [2]string{k, string(d.Info[k])})
		}
		labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)
		for _, f := range fields {
			if strings.TrimSpace(f[1]) == "" {
				continue
			}
			b.WriteString(labelStyle.Render(f[0]))
			b.WriteString(styles.Text.Render(truncate(f[1], width-18)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.toast.text != "" {
		style := styles.SuccessText
		if m.toast.danger {
			style = styles.DangerText
		}
		b.WriteString(style.Render(m.toast.text))
	} else {
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("enter queue %s · esc back", m.search.detailsID)))
	}
	return m.placeModal(b.String(), width)
}

func (m Model) modalWidth() int {
	return max(min(m.width-4, 80), 30)
}

// placeModal centers a bordered modal over the screen.
func (m Model) placeModal(content string, width int) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(width)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
