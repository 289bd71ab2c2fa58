package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const logoText = "bindery"

// renderHeader renders the status bar: logo, active badge, freshness and
// the request spinner.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render(logoText, styles.Logo)}
	parts = append(parts, bg.Render("Active:", styles.MutedText)+bg.Space()+bg.Render(m.activeBadge(), styles.Text))

	switch {
	case m.view.IsOffline():
		parts = append(parts, bg.Render("● offline", styles.DangerText))
	case m.view.LastError != nil:
		parts = append(parts, bg.Render("● error", styles.WarningText))
	case m.view.HasSnapshot:
		parts = append(parts, bg.Render("● online", styles.SuccessText))
	}

	if !m.view.LastUpdated.IsZero() {
		updated := humanize.RelTime(m.view.LastUpdated, m.now(), "ago", "from now")
		parts = append(parts, bg.Render("updated "+updated, styles.FaintText))
	}
	if m.busy() {
		parts = append(parts, m.spinner.View())
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// activeBadge is the active-download count, or "-" until one is known.
func (m Model) activeBadge() string {
	if !m.view.HasActiveCount {
		return "-"
	}
	return fmt.Sprintf("%d", m.view.ActiveCount)
}

// renderFooter shows the current toast, or the key hints when there is none.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	if m.toast.text != "" {
		style := styles.SuccessText
		if m.toast.danger {
			style = styles.DangerText
		}
		return styles.Header.Width(m.width).Render(style.Render(m.toast.text))
	}

	hints := m.help.ShortHelpView(m.keys.ShortHelp())
	theme := styles.AccentText.Render("T") + styles.MutedText.Render(":") + styles.FaintText.Render(m.theme.Name)
	gap := max(m.width-2-lipgloss.Width(hints)-lipgloss.Width(theme), 1)
	return styles.Header.Width(m.width).Render(hints + strings.Repeat(" ", gap) + theme)
}
