package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bindery/internal/dispatch"
	"github.com/five82/bindery/internal/prefs"
	"github.com/five82/bindery/internal/queue"
	"github.com/five82/bindery/internal/queueapi"
	"github.com/five82/bindery/internal/render"
	"github.com/five82/bindery/internal/status"
)

type fakeSource struct {
	mu       sync.Mutex
	seq      uint64
	snap     queue.Snapshot
	err      error
	count    int
	countErr error
}

func (f *fakeSource) Sync(context.Context) status.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return status.Result{Seq: f.seq, Snapshot: f.snap, Err: f.err, FetchedAt: time.Now()}
}

func (f *fakeSource) FetchActiveCount(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, f.countErr
}

func (f *fakeSource) set(snap queue.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
}

type fakeDispatcher struct {
	mu        sync.Mutex
	source    *fakeSource
	err       error
	enqueued  []string
	cancelled []string
	cleared   int
}

func (d *fakeDispatcher) outcome(action dispatch.Action, id string) dispatch.Outcome {
	out := dispatch.Outcome{Action: action, JobID: id}
	if d.err != nil {
		out.Err = &dispatch.DispatchError{Action: action, JobID: id, Err: d.err}
		if action == dispatch.ActionEnqueue {
			return out
		}
	}
	if d.source != nil {
		res := d.source.Sync(context.Background())
		out.Refresh = &res
	}
	return out
}

func (d *fakeDispatcher) Enqueue(_ context.Context, id string) dispatch.Outcome {
	d.mu.Lock()
	d.enqueued = append(d.enqueued, id)
	d.mu.Unlock()
	return d.outcome(dispatch.ActionEnqueue, id)
}

func (d *fakeDispatcher) Cancel(_ context.Context, id string) dispatch.Outcome {
	d.mu.Lock()
	d.cancelled = append(d.cancelled, id)
	d.mu.Unlock()
	return d.outcome(dispatch.ActionCancel, id)
}

func (d *fakeDispatcher) ClearCompleted(context.Context) dispatch.Outcome {
	d.mu.Lock()
	d.cleared++
	d.mu.Unlock()
	return d.outcome(dispatch.ActionClearCompleted, "")
}

type fakeCatalog struct {
	books []queueapi.BookSummary
	err   error
}

func (c fakeCatalog) Search(_ context.Context, q queueapi.SearchQuery) ([]queueapi.BookSummary, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []queueapi.BookSummary
	for _, b := range c.books {
		if strings.Contains(strings.ToLower(string(b.Title)), strings.ToLower(q.Query)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c fakeCatalog) Info(_ context.Context, id string) (queueapi.BookDetails, error) {
	for _, b := range c.books {
		if string(b.ID) == id {
			return queueapi.BookDetails{BookSummary: b, Publisher: "Ace"}, nil
		}
	}
	return queueapi.BookDetails{}, errors.New("not found")
}

func decodeSnap(t *testing.T, payload string) queue.Snapshot {
	t.Helper()
	snap, err := queue.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	return snap
}

// drain runs cmd and any batched commands, returning the messages they
// produce. Timer messages are dropped.
func drain(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var out []tea.Msg
	pending := []tea.Cmd{cmd}
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		if c == nil {
			continue
		}
		ch := make(chan tea.Msg, 1)
		go func() { ch <- c() }()
		select {
		case msg := <-ch:
			switch msg := msg.(type) {
			case tea.BatchMsg:
				pending = append(pending, msg...)
			case spinner.TickMsg, toastExpiredMsg, nil:
			default:
				out = append(out, msg)
			}
		case <-time.After(300 * time.Millisecond):
		}
	}
	return out
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want ui.Model", next)
	}
	return model, cmd
}

// settle feeds msg and then every message its commands produce.
func settle(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	msgs := []tea.Msg{msg}
	for len(msgs) > 0 {
		var cmd tea.Cmd
		m, cmd = update(t, m, msgs[0])
		msgs = append(msgs[1:], drain(t, cmd)...)
	}
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, src *fakeSource, opts Options) Model {
	t.Helper()
	opts.Status = src
	opts.ToastTTL = 10 * time.Millisecond
	m := New(opts)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	for _, msg := range drain(t, m.Init()) {
		m = settle(t, m, msg)
	}
	return m
}

const bookAPayload = `{"queued": {"7": {"title": "Book Q"}}, "downloading": {"42": {"title": "Book A", "progress": 57}}, "completed": {}, "error": {}}`

func TestModel_InitialSyncRendersViews(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, bookAPayload), count: 1}
	m := newTestModel(t, src, Options{})

	if m.busy() {
		t.Fatalf("pending = %d after initial sync, want 0", m.pending)
	}
	out := m.View()
	for _, want := range []string{"Active: 1", "Active downloads (1)", "Book A", "57%", "Queued", "Book Q", "Downloading"} {
		if !strings.Contains(out, want) {
			t.Fatalf("View missing %q:\n%s", want, out)
		}
	}
	targets := m.targets()
	if len(targets) != 3 || targets[0].Ref != render.StripCancelRef("42") {
		t.Fatalf("targets = %#v, want strip binding first then panel", targets)
	}
}

func TestModel_ActiveBadgePlaceholderUntilKnown(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, `{}`), countErr: errors.New("down")}
	m := newTestModel(t, src, Options{})

	out := m.View()
	if !strings.Contains(out, "Active: -") {
		t.Fatalf("View should show placeholder badge:\n%s", out)
	}
	if !strings.Contains(out, render.EmptyMessage) {
		t.Fatalf("View should show empty message:\n%s", out)
	}
}

func TestModel_StaleResultDiscarded(t *testing.T) {
	m := newTestModel(t, &fakeSource{snap: decodeSnap(t, `{}`)}, Options{})

	fresh := status.Result{Seq: 5, Snapshot: decodeSnap(t, `{"queued": {"new": {"title": "Fresh"}}}`)}
	stale := status.Result{Seq: 4, Snapshot: decodeSnap(t, `{"queued": {"old": {"title": "Stale"}}}`)}

	m, _ = update(t, m, syncMsg{result: fresh})
	m, _ = update(t, m, syncMsg{result: stale})

	out := m.View()
	if !strings.Contains(out, "Fresh") || strings.Contains(out, "Stale") {
		t.Fatalf("late stale response overwrote the view:\n%s", out)
	}
}

func TestModel_FetchErrorReplacesPanelKeepsStrip(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, bookAPayload)}
	m := newTestModel(t, src, Options{})

	err := &status.StatusFetchError{Op: "snapshot", Err: &queueapi.TransportError{StatusCode: 500}}
	m, _ = update(t, m, syncMsg{result: status.Result{Seq: 99, Err: err}})

	out := m.View()
	if !strings.Contains(out, render.ErrorMessage) {
		t.Fatalf("View should show error panel:\n%s", out)
	}
	if !strings.Contains(out, "Active downloads (1)") || !strings.Contains(out, "Book A") {
		t.Fatalf("strip should keep last good data:\n%s", out)
	}
	if strings.Contains(out, "Book Q") {
		t.Fatalf("panel entries should be replaced by the error:\n%s", out)
	}
}

func TestModel_CancelSelectedDispatchesAndRefreshes(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, bookAPayload), count: 1}
	d := &fakeDispatcher{source: src}
	m := newTestModel(t, src, Options{Dispatcher: d})

	// Strip binding first, then the panel in category order.
	m, _ = update(t, m, keyPress("j"))
	if ref := m.selectedRef(); ref != render.PanelCancelRef(queue.Queued, "7") {
		t.Fatalf("selectedRef = %q, want queued 7", ref)
	}

	src.set(decodeSnap(t, `{"downloading": {"42": {"title": "Book A", "progress": 60}}}`))
	m = settle(t, m, keyPress("x"))

	if len(d.cancelled) != 1 || d.cancelled[0] != "7" {
		t.Fatalf("cancelled = %v, want [7]", d.cancelled)
	}
	out := m.View()
	if strings.Contains(out, "Book Q") {
		t.Fatalf("cancelled job still displayed:\n%s", out)
	}
	if !strings.Contains(out, "60%") {
		t.Fatalf("refresh after cancel not applied:\n%s", out)
	}
	if m.selected != len(m.targets())-1 {
		t.Fatalf("selected = %d, want clamped to %d", m.selected, len(m.targets())-1)
	}
}

func TestModel_CancelFailureShowsToastAndStillRefreshes(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, bookAPayload)}
	d := &fakeDispatcher{source: src, err: errors.New("boom")}
	m := newTestModel(t, src, Options{Dispatcher: d})

	seq := m.view.LastSeq
	m = settle(t, m, keyPress("x"))

	if m.toast.text != "Failed to cancel download." || !m.toast.danger {
		t.Fatalf("toast = %#v, want cancel failure", m.toast)
	}
	if m.view.LastSeq <= seq {
		t.Fatalf("LastSeq = %d, want a refresh after seq %d", m.view.LastSeq, seq)
	}
	if !strings.Contains(m.View(), "Failed to cancel download.") {
		t.Fatalf("footer should show the toast:\n%s", m.View())
	}
}

func TestModel_CancelWithNothingSelectedIsNoop(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, `{"completed": {"1": {}}}`)}
	d := &fakeDispatcher{source: src}
	m := newTestModel(t, src, Options{Dispatcher: d})

	if _, cmd := update(t, m, keyPress("x")); cmd != nil {
		t.Fatalf("cancel without a cancelable job returned a command")
	}
	if len(d.cancelled) != 0 {
		t.Fatalf("cancelled = %v, want none", d.cancelled)
	}
}

func TestModel_ClearCompleted(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, `{"completed": {"1": {"title": "Done 1"}, "2": {"title": "Done 2"}, "3": {"title": "Done 3"}}}`)}
	d := &fakeDispatcher{source: src}
	m := newTestModel(t, src, Options{Dispatcher: d})

	src.set(decodeSnap(t, `{}`))
	m = settle(t, m, keyPress("C"))

	if d.cleared != 1 {
		t.Fatalf("cleared = %d, want 1", d.cleared)
	}
	out := m.View()
	if strings.Contains(out, "Done 1") || !strings.Contains(out, render.EmptyMessage) {
		t.Fatalf("completed entries still shown:\n%s", out)
	}
}

func TestModel_SearchAndEnqueue(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, `{}`)}
	d := &fakeDispatcher{source: src}
	catalog := fakeCatalog{books: []queueapi.BookSummary{
		{ID: "abc", Title: "Dune", Author: "Frank Herbert", Year: "1965"},
		{ID: "def", Title: "Dune Messiah", Author: "Frank Herbert"},
	}}
	m := newTestModel(t, src, Options{Dispatcher: d, Catalog: catalog})

	m, _ = update(t, m, keyPress("/"))
	if m.overlay != overlaySearch || !m.search.focusInput {
		t.Fatalf("overlay = %v focus=%v, want focused search", m.overlay, m.search.focusInput)
	}
	for _, r := range "dune" {
		m, _ = update(t, m, keyPress(string(r)))
	}
	if m.search.input.Value() != "dune" {
		t.Fatalf("input = %q, want dune", m.search.input.Value())
	}

	m = settle(t, m, keyPress("enter"))
	if len(m.search.results) != 2 || m.search.focusInput {
		t.Fatalf("results = %d focus=%v, want 2 results in list mode", len(m.search.results), m.search.focusInput)
	}
	if !strings.Contains(m.View(), "Dune - Frank Herbert (1965)") {
		t.Fatalf("search overlay missing result:\n%s", m.View())
	}

	m, _ = update(t, m, keyPress("j"))
	m = settle(t, m, keyPress("enter"))
	if len(d.enqueued) != 1 || d.enqueued[0] != "def" {
		t.Fatalf("enqueued = %v, want [def]", d.enqueued)
	}
	if m.toast.text != "Queued for download" || m.toast.danger {
		t.Fatalf("toast = %#v, want success", m.toast)
	}

	m, _ = update(t, m, keyPress("esc"))
	if m.overlay != overlayNone {
		t.Fatalf("esc should close search, overlay = %v", m.overlay)
	}
}

func TestModel_EnqueueFailureToast(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, `{}`), count: 1}
	d := &fakeDispatcher{source: src, err: errors.New("503")}
	m := newTestModel(t, src, Options{Dispatcher: d})

	seq := m.view.LastSeq
	src.mu.Lock()
	src.count = 7
	src.mu.Unlock()

	m = settle(t, m, dispatchMsg{outcome: d.Enqueue(context.Background(), "abc")})
	if m.toast.text != "Failed to queue download." || !m.toast.danger {
		t.Fatalf("toast = %#v, want enqueue failure", m.toast)
	}
	if m.view.LastSeq != seq {
		t.Fatalf("failed enqueue should not change the view")
	}
	if m.view.ActiveCount != 1 {
		t.Fatalf("ActiveCount = %d after failed enqueue, want unchanged 1", m.view.ActiveCount)
	}
	if !strings.Contains(m.View(), "Active: 1") {
		t.Fatalf("badge changed after failed enqueue:\n%s", m.View())
	}
}

func TestModel_SearchFailureAndStaleResults(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, `{}`)}
	m := newTestModel(t, src, Options{Catalog: fakeCatalog{err: errors.New("down")}})

	m, _ = update(t, m, keyPress("/"))
	m.search.input.SetValue("anything")
	m = settle(t, m, keyPress("enter"))
	if m.search.err == nil || !strings.Contains(m.View(), "Search failed.") {
		t.Fatalf("search failure not shown:\n%s", m.View())
	}

	m, _ = update(t, m, searchResultsMsg{query: "older", results: []queueapi.BookSummary{{ID: "x"}}})
	if len(m.search.results) != 0 {
		t.Fatalf("results for an old query were applied")
	}
}

func TestModel_DetailsModal(t *testing.T) {
	src := &fakeSource{snap: decodeSnap(t, `{}`)}
	catalog := fakeCatalog{books: []queueapi.BookSummary{{ID: "abc", Title: "Dune", Author: "Frank Herbert"}}}
	d := &fakeDispatcher{source: src}
	m := newTestModel(t, src, Options{Catalog: catalog, Dispatcher: d})

	m, _ = update(t, m, keyPress("/"))
	m.search.input.SetValue("dune")
	m = settle(t, m, keyPress("enter"))
	m = settle(t, m, keyPress("d"))

	if m.overlay != overlayDetails || m.search.loadingDetails {
		t.Fatalf("overlay = %v loading=%v, want loaded details", m.overlay, m.search.loadingDetails)
	}
	out := m.View()
	if !strings.Contains(out, "Publisher") || !strings.Contains(out, "Ace") {
		t.Fatalf("details modal missing publisher:\n%s", out)
	}

	m, _ = update(t, m, keyPress("esc"))
	if m.overlay != overlaySearch {
		t.Fatalf("esc from details should return to search, overlay = %v", m.overlay)
	}

	m = settle(t, m, keyPress("d"))
	m = settle(t, m, keyPress("enter"))
	if len(d.enqueued) != 1 || d.enqueued[0] != "abc" {
		t.Fatalf("enqueued = %v, want [abc]", d.enqueued)
	}
	if m.overlay != overlaySearch {
		t.Fatalf("successful enqueue should close details, overlay = %v", m.overlay)
	}
}

func TestModel_ToastExpiry(t *testing.T) {
	m := New(Options{})
	_ = m.showToast("first", false)
	first := m.toast.id
	_ = m.showToast("second", true)

	m, _ = update(t, m, toastExpiredMsg{id: first})
	if m.toast.text != "second" {
		t.Fatalf("older timer cleared the newer toast: %#v", m.toast)
	}
	m, _ = update(t, m, toastExpiredMsg{id: m.toast.id})
	if m.toast.text != "" {
		t.Fatalf("toast = %#v, want cleared", m.toast)
	}
}

func TestModel_ThemeCyclePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	store, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}

	m := newTestModel(t, &fakeSource{snap: decodeSnap(t, `{}`)}, Options{Prefs: store, DarkBackground: true})
	if m.theme.Name != prefs.ThemeAuto || !m.theme.Dark {
		t.Fatalf("theme = %s dark=%v, want auto resolving dark", m.theme.Name, m.theme.Dark)
	}

	m, _ = update(t, m, keyPress("T"))
	if m.theme.Name != prefs.ThemeLight || m.theme.Dark {
		t.Fatalf("theme = %s dark=%v, want light", m.theme.Name, m.theme.Dark)
	}
	reloaded, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	if reloaded.Get().Theme != prefs.ThemeLight {
		t.Fatalf("persisted theme = %q, want light", reloaded.Get().Theme)
	}
}

func TestModel_HelpOverlayAndQuit(t *testing.T) {
	m := newTestModel(t, &fakeSource{snap: decodeSnap(t, `{}`)}, Options{})

	m, _ = update(t, m, keyPress("?"))
	if m.overlay != overlayHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m, _ = update(t, m, keyPress("j"))
	if m.overlay != overlayNone {
		t.Fatalf("any key should close help")
	}

	_, cmd := update(t, m, keyPress("ctrl+c"))
	if cmd == nil {
		t.Fatal("ctrl+c returned nil command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c should quit")
	}
}

func TestModel_TypingEInSearchDoesNotQuit(t *testing.T) {
	m := newTestModel(t, &fakeSource{snap: decodeSnap(t, `{}`)}, Options{})
	m, _ = update(t, m, keyPress("/"))
	m, cmd := update(t, m, keyPress("e"))
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("typing e in the search box quit the program")
		}
	}
	if m.search.input.Value() != "e" {
		t.Fatalf("input = %q, want e", m.search.input.Value())
	}
}

func TestResolveTheme(t *testing.T) {
	tests := []struct {
		pref     string
		dark     bool
		wantName string
		wantDark bool
	}{
		{"auto", true, "auto", true},
		{"auto", false, "auto", false},
		{"dark", false, "dark", true},
		{"light", true, "light", false},
		{"bogus", true, "auto", true},
	}
	for _, tt := range tests {
		got := ResolveTheme(tt.pref, tt.dark)
		if got.Name != tt.wantName || got.Dark != tt.wantDark {
			t.Errorf("ResolveTheme(%q, %v) = %s/%v, want %s/%v", tt.pref, tt.dark, got.Name, got.Dark, tt.wantName, tt.wantDark)
		}
		for _, c := range queue.Categories() {
			if got.CategoryColors[c] == "" {
				t.Errorf("ResolveTheme(%q) has no color for %v", tt.pref, c)
			}
		}
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("auto"); got != "light" {
		t.Fatalf("NextTheme(auto) = %q, want light", got)
	}
	if got := NextTheme("dark"); got != "auto" {
		t.Fatalf("NextTheme(dark) = %q, want auto", got)
	}
	if got := NextTheme("unknown"); got != "auto" {
		t.Fatalf("NextTheme(unknown) = %q, want auto", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"a longer title", 8, "a lon..."},
		{"abcdef", 3, "abc"},
		{"  padded  ", 0, "padded"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
