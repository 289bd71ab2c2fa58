package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/bindery/internal/queue"
	"github.com/five82/bindery/internal/render"
	"github.com/five82/bindery/internal/status"
)

// View is the latest state available to the UI.
type View struct {
	Snapshot            queue.Snapshot
	HasSnapshot         bool
	Panel               render.Panel
	Strip               render.Strip
	ActiveCount         int
	HasActiveCount      bool
	LastSeq             uint64
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed snapshot fetches
}

// IsOffline reports whether the last two or more snapshot fetches failed.
func (v View) IsOffline() bool {
	return v.ConsecutiveFailures >= 2
}

// Loaded reports whether any snapshot result, good or bad, has been applied.
func (v View) Loaded() bool {
	return v.LastSeq > 0
}

// Store coordinates concurrent updates to the view.
type Store struct {
	mu   sync.RWMutex
	view View
}

// Apply records a snapshot fetch result. It returns false and leaves the
// view unchanged when res is not newer than the last applied result.
func (s *Store) Apply(res status.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Seq <= s.view.LastSeq {
		return false
	}
	s.view.LastSeq = res.Seq
	s.view.LastUpdated = res.FetchedAt
	if s.view.LastUpdated.IsZero() {
		s.view.LastUpdated = time.Now()
	}

	if res.Err != nil {
		s.view.Panel = render.ErrorPanel()
		s.view.LastError = res.Err
		s.view.ConsecutiveFailures++
		return true
	}

	s.view.Snapshot = res.Snapshot
	s.view.HasSnapshot = true
	s.view.Panel = render.FullPanel(res.Snapshot)
	s.view.Strip = render.ActiveStrip(res.Snapshot)
	s.view.LastError = nil
	s.view.ConsecutiveFailures = 0
	return true
}

// SetActiveCount records the result of an active-count fetch. On error
// the previous count is kept.
func (s *Store) SetActiveCount(n int, err error) {
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.ActiveCount = n
	s.view.HasActiveCount = true
}

// Snapshot returns a copy of the current view.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.view
	v.Panel = clonePanel(s.view.Panel)
	v.Strip = cloneStrip(s.view.Strip)
	if s.view.LastError != nil {
		v.LastError = fmt.Errorf("%w", s.view.LastError)
	}
	return v
}

func clonePanel(p render.Panel) render.Panel {
	dup := p
	if p.Sections != nil {
		dup.Sections = make([]render.Section, len(p.Sections))
		for i, section := range p.Sections {
			dup.Sections[i] = section
			dup.Sections[i].Entries = append([]render.Entry(nil), section.Entries...)
		}
	}
	dup.Bindings = append([]render.Binding(nil), p.Bindings...)
	return dup
}

func cloneStrip(s render.Strip) render.Strip {
	dup := s
	dup.Entries = append([]render.StripEntry(nil), s.Entries...)
	dup.Bindings = append([]render.Binding(nil), s.Bindings...)
	return dup
}
