package ui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bindery/internal/dispatch"
	"github.com/five82/bindery/internal/prefs"
	"github.com/five82/bindery/internal/queueapi"
	"github.com/five82/bindery/internal/render"
	"github.com/five82/bindery/internal/state"
	"github.com/five82/bindery/internal/status"
)

// StatusSource produces sequenced status results; *status.Store implements it.
type StatusSource interface {
	Sync(ctx context.Context) status.Result
	FetchActiveCount(ctx context.Context) (int, error)
}

// Dispatcher issues queue actions; *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Enqueue(ctx context.Context, id string) dispatch.Outcome
	Cancel(ctx context.Context, id string) dispatch.Outcome
	ClearCompleted(ctx context.Context) dispatch.Outcome
}

// Catalog looks up books; *queueapi.Client implements it.
type Catalog interface {
	Search(ctx context.Context, query queueapi.SearchQuery) ([]queueapi.BookSummary, error)
	Info(ctx context.Context, id string) (queueapi.BookDetails, error)
}

// overlay is the modal currently drawn over the main view.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlaySearch
	overlayDetails
)

const defaultToastTTL = 4 * time.Second

// Options configures the UI.
type Options struct {
	Context    context.Context
	Status     StatusSource
	Dispatcher Dispatcher
	Catalog    Catalog
	Store      *state.Store
	Prefs      *prefs.Store
	Logger     *slog.Logger

	// DarkBackground decides what the "auto" theme resolves to.
	DarkBackground bool
	ToastTTL       time.Duration
	Now            func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	source     StatusSource
	dispatcher Dispatcher
	catalog    Catalog
	store      *state.Store
	prefs      *prefs.Store
	logger     *slog.Logger
	now        func() time.Time
	toastTTL   time.Duration
	dark       bool

	// UI state
	keys    keyMap
	help    help.Model
	theme   Theme
	width   int
	height  int
	ready   bool
	overlay overlay

	// Data state
	view     state.View
	selected int // index into targets()
	pending  int // outstanding status fetches and actions

	panel   viewport.Model
	spinner spinner.Model
	bar     progress.Model

	search searchState
	toast  toast
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.ToastTTL
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	themeName := prefs.ThemeAuto
	if opts.Prefs != nil {
		themeName = opts.Prefs.Get().Theme
	}

	input := textinput.New()
	input.Placeholder = "Title, author or ISBN"
	input.Prompt = "/ "
	input.CharLimit = 200

	m := Model{
		ctx:        ctx,
		source:     opts.Status,
		dispatcher: opts.Dispatcher,
		catalog:    opts.Catalog,
		store:      store,
		prefs:      opts.Prefs,
		logger:     logger,
		now:        now,
		toastTTL:   ttl,
		dark:       opts.DarkBackground,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		theme:      ResolveTheme(themeName, opts.DarkBackground),
		view:       store.Snapshot(),
		panel:      viewport.New(0, 0),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:        progress.New(progress.WithSolidFill("#719cd6"), progress.WithoutPercentage(), progress.WithWidth(progressWidth)),
		search:     searchState{input: input},
	}
	if m.source != nil {
		m.pending = 1
	}
	m.applyTheme()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.source == nil {
		return nil
	}
	return tea.Batch(
		syncCmd(m.ctx, m.source),
		activeCountCmd(m.ctx, m.source),
		m.spinner.Tick,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case syncMsg:
		m.finishRequest()
		m.applyResult(msg.result)
		return m, nil

	case activeCountMsg:
		if msg.err != nil {
			m.logger.Warn("active count fetch failed", slog.Any("error", msg.err))
		}
		m.store.SetActiveCount(msg.count, msg.err)
		m.view = m.store.Snapshot()
		return m, nil

	case dispatchMsg:
		m.finishRequest()
		return m.handleOutcome(msg.outcome)

	case searchResultsMsg:
		return m.handleSearchResults(msg)

	case detailsMsg:
		return m.handleDetails(msg)

	case toastExpiredMsg:
		if msg.id == m.toast.id {
			m.toast = toast{id: m.toast.id}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.overlay {
	case overlayHelp:
		return m.renderHelp()
	case overlaySearch:
		return m.renderSearch()
	case overlayDetails:
		return m.renderDetails()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && (m.overlay != overlaySearch || msg.String() == "ctrl+c") {
		return m, tea.Quit
	}

	switch m.overlay {
	case overlayHelp:
		// Any key closes help
		m.overlay = overlayNone
		return m, nil
	case overlaySearch:
		return m.handleSearchKey(msg)
	case overlayDetails:
		return m.handleDetailsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		return m, m.cycleTheme()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.Search):
		return m, m.openSearch()

	case key.Matches(msg, m.keys.Cancel):
		return m, m.cancelSelected()

	case key.Matches(msg, m.keys.ClearCompleted):
		return m, m.clearCompleted()

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
		m.syncPanel()
	case key.Matches(msg, m.keys.Bottom):
		m.selected = max(len(m.targets())-1, 0)
		m.syncPanel()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.panel.SetYOffset(m.panel.YOffset + max(m.panel.Height/2, 1))
	case key.Matches(msg, m.keys.HalfPageUp):
		m.panel.SetYOffset(m.panel.YOffset - max(m.panel.Height/2, 1))
	}
	return m, nil
}

// applyResult records a status result and re-renders when it was accepted.
func (m *Model) applyResult(res status.Result) {
	if res.Err != nil {
		m.logger.Warn("status fetch failed", slog.Uint64("seq", res.Seq), slog.Any("error", res.Err))
	}
	if !m.store.Apply(res) {
		m.logger.Debug("discarded stale status", slog.Uint64("seq", res.Seq))
		return
	}
	m.view = m.store.Snapshot()
	m.clampSelection()
	m.syncPanel()
}

// handleOutcome surfaces an action result and applies its refresh.
func (m Model) handleOutcome(out dispatch.Outcome) (tea.Model, tea.Cmd) {
	if out.Refresh != nil {
		m.applyResult(*out.Refresh)
	}

	var text string
	danger := !out.OK()
	switch out.Action {
	case dispatch.ActionEnqueue:
		text = "Queued for download"
		if danger {
			text = "Failed to queue download."
		} else if m.overlay == overlayDetails {
			m.overlay = overlaySearch
		}
	case dispatch.ActionCancel:
		if danger {
			text = "Failed to cancel download."
		}
	case dispatch.ActionClearCompleted:
		if danger {
			text = "Failed to clear completed."
		}
	}

	var cmds []tea.Cmd
	if out.Refresh != nil {
		cmds = append(cmds, activeCountCmd(m.ctx, m.source))
	}
	if text != "" {
		cmds = append(cmds, m.showToast(text, danger))
	}
	return m, tea.Batch(cmds...)
}

// refresh starts a status and active-count fetch.
func (m *Model) refresh() tea.Cmd {
	if m.source == nil {
		return nil
	}
	return tea.Batch(m.startRequest(), syncCmd(m.ctx, m.source), activeCountCmd(m.ctx, m.source))
}

func (m *Model) cancelSelected() tea.Cmd {
	targets := m.targets()
	if m.dispatcher == nil || len(targets) == 0 {
		return nil
	}
	b := targets[m.selected]
	if b.Action.Kind != render.ActionCancel {
		return nil
	}
	return tea.Batch(m.startRequest(), cancelCmd(m.ctx, m.dispatcher, b.Action.JobID))
}

func (m *Model) clearCompleted() tea.Cmd {
	if m.dispatcher == nil {
		return nil
	}
	return tea.Batch(m.startRequest(), clearCmd(m.ctx, m.dispatcher))
}

func (m *Model) cycleTheme() tea.Cmd {
	next := NextTheme(m.theme.Name)
	m.theme = ResolveTheme(next, m.dark)
	m.applyTheme()
	m.syncPanel()
	if m.prefs == nil {
		return nil
	}
	if err := m.prefs.SetTheme(next); err != nil {
		m.logger.Warn("save theme preference failed", slog.Any("error", err))
		return m.showToast("Failed to save theme.", true)
	}
	return nil
}

// applyTheme pushes theme colors into the bubbles components.
func (m *Model) applyTheme() {
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Background(lipgloss.Color(m.theme.Surface))
	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted))
	m.help.Styles.FullKey = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning))
	m.help.Styles.FullDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Text))
	m.help.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Faint))
	m.help.Styles.FullSeparator = m.help.Styles.ShortSeparator
	m.bar.FullColor = m.theme.Accent
	m.bar.EmptyColor = m.theme.Border
}

// startRequest marks a request outstanding and restarts the spinner when
// it was idle.
func (m *Model) startRequest() tea.Cmd {
	m.pending++
	if m.pending == 1 {
		return m.spinner.Tick
	}
	return nil
}

func (m *Model) finishRequest() {
	if m.pending > 0 {
		m.pending--
	}
}

func (m Model) busy() bool {
	return m.pending > 0
}

// Messages

type syncMsg struct {
	result status.Result
}

type activeCountMsg struct {
	count int
	err   error
}

type dispatchMsg struct {
	outcome dispatch.Outcome
}

// Commands

func syncCmd(ctx context.Context, src StatusSource) tea.Cmd {
	return func() tea.Msg {
		return syncMsg{result: src.Sync(ctx)}
	}
}

func activeCountCmd(ctx context.Context, src StatusSource) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		n, err := src.FetchActiveCount(ctx)
		return activeCountMsg{count: n, err: err}
	}
}

func cancelCmd(ctx context.Context, d Dispatcher, id string) tea.Cmd {
	return func() tea.Msg {
		return dispatchMsg{outcome: d.Cancel(ctx, id)}
	}
}

func clearCmd(ctx context.Context, d Dispatcher) tea.Cmd {
	return func() tea.Msg {
		return dispatchMsg{outcome: d.ClearCompleted(ctx)}
	}
}

func enqueueCmd(ctx context.Context, d Dispatcher, id string) tea.Cmd {
	return func() tea.Msg {
		return dispatchMsg{outcome: d.Enqueue(ctx, id)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
