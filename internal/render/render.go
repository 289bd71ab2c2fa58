package render

import (
	"math"

	"github.com/five82/bindery/internal/queue"
)

// Display strings shared by every surface.
const (
	PlaceholderTitle = "-"
	EmptyMessage     = "No items in queue."
	ErrorMessage     = "Error loading status."
)

// ActionKind identifies what a binding does when triggered.
type ActionKind int

const (
	ActionCancel ActionKind = iota + 1
)

func (k ActionKind) String() string {
	switch k {
	case ActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Action is the intent attached to an interactive element.
type Action struct {
	Kind  ActionKind
	JobID string
}

// Binding pairs an element reference with the action it fires.
type Binding struct {
	Ref    string
	Action Action
}

// Entry is one job row in the full panel.
type Entry struct {
	JobID        string
	Title        string
	Category     queue.Category
	Label        string
	Percent      int
	ShowProgress bool
	CancelRef    string // empty when the job cannot be cancelled
}

// Section groups the entries of one non-empty category.
type Section struct {
	Category queue.Category
	Title    string
	Entries  []Entry
}

// Panel is the full status view. Exactly one of Sections or Message is set.
type Panel struct {
	Sections []Section
	Message  string
	Failed   bool
	Bindings []Binding
}

// StripEntry is one row of the active-downloads strip.
type StripEntry struct {
	JobID       string
	Title       string
	Percent     int
	HasProgress bool
	CancelRef   string
}

// Strip is the compact active-downloads view. When Visible is false the
// strip collapses and Entries is empty.
type Strip struct {
	Visible  bool
	Entries  []StripEntry
	Bindings []Binding
}

// FullPanel renders every non-empty category in fixed order.
func FullPanel(snap queue.Snapshot) Panel {
	var panel Panel
	for _, c := range queue.Categories() {
		jobs := snap.Jobs(c)
		if len(jobs) == 0 {
			continue
		}
		section := Section{Category: c, Title: c.Label(), Entries: make([]Entry, 0, len(jobs))}
		for _, job := range jobs {
			entry := Entry{
				JobID:    job.ID,
				Title:    displayTitle(job.Title),
				Category: c,
				Label:    c.Label(),
			}
			if c == queue.Downloading && job.HasProgress {
				entry.Percent = Percent(job.Progress)
				entry.ShowProgress = true
			}
			if c.Cancelable() {
				entry.CancelRef = PanelCancelRef(c, job.ID)
				panel.Bindings = append(panel.Bindings, Binding{
					Ref:    entry.CancelRef,
					Action: Action{Kind: ActionCancel, JobID: job.ID},
				})
			}
			section.Entries = append(section.Entries, entry)
		}
		panel.Sections = append(panel.Sections, section)
	}
	if len(panel.Sections) == 0 {
		panel.Message = EmptyMessage
	}
	return panel
}

// ErrorPanel is shown in place of the full panel when a fetch fails.
func ErrorPanel() Panel {
	return Panel{Message: ErrorMessage, Failed: true}
}

// ActiveStrip renders the downloading bucket only.
func ActiveStrip(snap queue.Snapshot) Strip {
	jobs := snap.Jobs(queue.Downloading)
	if len(jobs) == 0 {
		return Strip{}
	}
	strip := Strip{Visible: true, Entries: make([]StripEntry, 0, len(jobs))}
	for _, job := range jobs {
		entry := StripEntry{
			JobID:       job.ID,
			Title:       displayTitle(job.Title),
			HasProgress: job.HasProgress,
			CancelRef:   StripCancelRef(job.ID),
		}
		if job.HasProgress {
			entry.Percent = Percent(job.Progress)
		}
		strip.Entries = append(strip.Entries, entry)
		strip.Bindings = append(strip.Bindings, Binding{
			Ref:    entry.CancelRef,
			Action: Action{Kind: ActionCancel, JobID: job.ID},
		})
	}
	return strip
}

// ActiveCount is the number of downloading jobs in snap.
func ActiveCount(snap queue.Snapshot) int {
	return snap.Len(queue.Downloading)
}

// Percent clamps p to [0,100] and rounds to the nearest integer.
func Percent(p float64) int {
	if math.IsNaN(p) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, p))))
}

// PanelCancelRef is the element reference of a cancel control in the panel.
func PanelCancelRef(c queue.Category, id string) string {
	return "panel/" + c.Key() + "/" + id + "/cancel"
}

// StripCancelRef is the element reference of a cancel control in the strip.
func StripCancelRef(id string) string {
	return "strip/" + id + "/cancel"
}

func displayTitle(title string) string {
	if title == "" {
		return PlaceholderTitle
	}
	return title
}
