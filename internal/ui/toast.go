package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// toast is a transient notification shown in the footer.
type toast struct {
	id     int
	text   string
	danger bool
}

type toastExpiredMsg struct {
	id int
}

// showToast replaces the current toast and schedules its removal. A newer
// toast is not cleared by an older one's timer.
func (m *Model) showToast(text string, danger bool) tea.Cmd {
	id := m.toast.id + 1
	m.toast = toast{id: id, text: text, danger: danger}
	return tea.Tick(m.toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}
