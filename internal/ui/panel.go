package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bindery/internal/render"
)

const (
	progressWidth  = 20
	maxStripRows   = 5
	chromeRows     = 2 // header + footer
	loadingMessage = "Loading status..."
)

// targets lists every actionable element: the strip first, then the panel.
func (m Model) targets() []render.Binding {
	out := make([]render.Binding, 0, len(m.view.Strip.Bindings)+len(m.view.Panel.Bindings))
	out = append(out, m.view.Strip.Bindings...)
	out = append(out, m.view.Panel.Bindings...)
	return out
}

// selectedRef is the element reference under the cursor, or "".
func (m Model) selectedRef() string {
	targets := m.targets()
	if m.selected < 0 || m.selected >= len(targets) {
		return ""
	}
	return targets[m.selected].Ref
}

func (m *Model) moveSelection(delta int) {
	n := len(m.targets())
	if n == 0 {
		m.selected = 0
		return
	}
	m.selected = min(max(m.selected+delta, 0), n-1)
	m.syncPanel()
}

// clampSelection keeps the cursor inside the current bindings after the
// view changed underneath it.
func (m *Model) clampSelection() {
	n := len(m.targets())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// stripHeight is the number of rows the active strip occupies.
func (m Model) stripHeight() int {
	if !m.view.Strip.Visible {
		return 0
	}
	return min(len(m.view.Strip.Entries), maxStripRows) + 2
}

// layout sizes the panel viewport to the space left by the chrome.
func (m *Model) layout() {
	boxHeight := max(m.height-chromeRows-m.stripHeight(), 3)
	m.panel.Width = max(m.width-2, 0)
	m.panel.Height = boxHeight - 2
	m.syncPanel()
}

// syncPanel re-renders the panel into the viewport and keeps the
// selected row visible.
func (m *Model) syncPanel() {
	if !m.ready {
		return
	}
	if want := max(m.height-chromeRows-m.stripHeight(), 3) - 2; m.panel.Height != want {
		m.panel.Height = want
	}
	content, line := m.renderPanelContent(m.panel.Width)
	m.panel.SetContent(content)
	if line < 0 {
		return
	}
	if line < m.panel.YOffset {
		m.panel.SetYOffset(line)
	} else if line >= m.panel.YOffset+m.panel.Height {
		m.panel.SetYOffset(line - m.panel.Height + 1)
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	parts := []string{m.renderHeader()}
	if strip := m.renderStrip(); strip != "" {
		parts = append(parts, strip)
	}
	parts = append(parts,
		m.renderTitledBox(m.panelTitle(), m.panel.View(), m.width, m.panel.Height+2, m.selectedInPanel()),
		m.renderFooter(),
	)
	return strings.Join(parts, "\n")
}

func (m Model) panelTitle() string {
	if total := m.view.Snapshot.Total(); m.view.HasSnapshot && total > 0 {
		return fmt.Sprintf("Queue (%d)", total)
	}
	return "Queue"
}

func (m Model) selectedInPanel() bool {
	return strings.HasPrefix(m.selectedRef(), "panel/")
}

// renderStrip renders the active-downloads strip, or "" when hidden.
func (m Model) renderStrip() string {
	strip := m.view.Strip
	if !strip.Visible {
		return ""
	}
	width := max(m.width-2, 10)
	selected := m.selectedRef()

	var lines []string
	for i, entry := range strip.Entries {
		if i == maxStripRows {
			break
		}
		lines = append(lines, m.formatStripRow(entry, width, entry.CancelRef == selected))
	}
	title := fmt.Sprintf("Active downloads (%d)", len(strip.Entries))
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, m.stripHeight(), strings.HasPrefix(selected, "strip/"))
}

func (m Model) formatStripRow(entry render.StripEntry, width int, selected bool) string {
	bgColor := m.theme.SurfaceAlt
	if selected {
		bgColor = m.theme.SelectionBg
	}
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	meter := m.meter(entry.Percent, entry.HasProgress, bg)
	titleWidth := max(width-progressWidth-12, 8)
	row := bg.Render(cursor(selected), styles.AccentText) + bg.Space() +
		bg.Render(truncate(entry.Title, titleWidth), m.rowStyle(styles.Text, selected)) + bg.Spaces(2) +
		meter + bg.Spaces(2) + bg.Render("[x]", styles.DangerText)
	return bg.FillLine(row, width)
}

// renderPanelContent renders the full panel. It returns the content and
// the line of the selected entry, or -1.
func (m Model) renderPanelContent(width int) (string, int) {
	styles := m.theme.Styles()
	panel := m.view.Panel

	if !m.view.Loaded() {
		return styles.MutedText.Render(loadingMessage), -1
	}
	if panel.Message != "" {
		style := styles.MutedText
		if panel.Failed {
			style = styles.DangerText
		}
		return style.Render(panel.Message), -1
	}

	selected := m.selectedRef()
	selectedLine := -1
	var lines []string
	for i, section := range panel.Sections {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines,
			styles.CategoryStyle(section.Category).Render(section.Title)+
				styles.FaintText.Render(fmt.Sprintf(" (%d)", len(section.Entries))))
		for _, entry := range section.Entries {
			isSelected := entry.CancelRef != "" && entry.CancelRef == selected
			if isSelected {
				selectedLine = len(lines)
			}
			lines = append(lines, m.formatPanelRow(entry, width, isSelected))
		}
	}
	return strings.Join(lines, "\n"), selectedLine
}

// formatPanelRow formats one job: "› Title · Label [bar] 57% [x]".
func (m Model) formatPanelRow(entry render.Entry, width int, selected bool) string {
	bgColor := m.theme.SurfaceAlt
	if selected {
		bgColor = m.theme.SelectionBg
	}
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	tail := bg.Render(" · ", styles.FaintText) + bg.Render(entry.Label, m.rowStyle(styles.CategoryStyle(entry.Category), selected))
	tailWidth := 3 + len(entry.Label)
	if entry.ShowProgress {
		tail += bg.Spaces(2) + m.meter(entry.Percent, true, bg)
		tailWidth += 2 + progressWidth + 5
	}
	if entry.CancelRef != "" {
		tail += bg.Spaces(2) + bg.Render("[x]", styles.DangerText)
		tailWidth += 5
	}

	titleWidth := max(width-tailWidth-2, 8)
	row := bg.Render(cursor(selected), styles.AccentText) + bg.Space() +
		bg.Render(truncate(entry.Title, titleWidth), m.rowStyle(styles.Text, selected)) + tail
	return bg.FillLine(row, width)
}

// meter renders a progress bar followed by the percentage. Jobs without a
// reported progress get an empty bar and no number.
func (m Model) meter(percent int, known bool, bg BgStyle) string {
	styles := m.theme.Styles()
	bar := m.bar.ViewAs(float64(percent) / 100)
	label := "   -"
	if known {
		label = fmt.Sprintf("%4s", fmt.Sprintf("%d%%", percent))
	}
	return bar + bg.Space() + bg.Render(label, styles.MutedText)
}

func (m Model) rowStyle(base lipgloss.Style, selected bool) lipgloss.Style {
	if selected {
		return base.Foreground(lipgloss.Color(m.theme.SelectionText))
	}
	return base
}

func cursor(selected bool) string {
	if selected {
		return "›"
	}
	return " "
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐. Focused boxes use the focus border color.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor := m.theme.Border
	if focused {
		borderColor = m.theme.BorderFocus
	}
	bg := NewBgStyle(m.theme.SurfaceAlt)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(m.theme.SurfaceAlt))
	contentLines := strings.Split(content, "\n")
	rows := make([]string, 0, max(height-2, 0))
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		rows = append(rows, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}

	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}
