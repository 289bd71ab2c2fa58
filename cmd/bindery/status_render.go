package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/five82/bindery/internal/queue"
	"github.com/five82/bindery/internal/state"
)

// renderView prints the active strip (when visible) followed by the full
// panel, mirroring the two regions of the TUI.
func renderView(view state.View, colorize bool) string {
	var lines []string

	if view.Strip.Visible {
		lines = append(lines, renderSectionHeader(fmt.Sprintf("Active downloads (%d)", len(view.Strip.Entries)), colorize)...)
		rows := make([][]string, 0, len(view.Strip.Entries))
		for _, entry := range view.Strip.Entries {
			rows = append(rows, []string{entry.JobID, entry.Title, progressLabel(entry.Percent, entry.HasProgress)})
		}
		lines = append(lines, renderTable([]string{"ID", "Title", "Progress"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}), "")
	}

	title := "Queue"
	if view.HasSnapshot && !view.Panel.Failed {
		title = fmt.Sprintf("Queue (%d)", view.Snapshot.Total())
	}
	lines = append(lines, renderSectionHeader(title, colorize)...)

	panel := view.Panel
	switch {
	case panel.Failed:
		msg := panel.Message
		if colorize {
			msg = text.FgRed.Sprint(msg)
		}
		lines = append(lines, msg)
	case panel.Message != "":
		lines = append(lines, panel.Message)
	default:
		var rows [][]string
		for _, section := range panel.Sections {
			for _, entry := range section.Entries {
				progress := ""
				if entry.ShowProgress {
					progress = progressLabel(entry.Percent, true)
				}
				rows = append(rows, []string{categoryLabel(entry.Category, colorize), entry.JobID, entry.Title, progress})
			}
		}
		lines = append(lines, renderTable(
			[]string{"Status", "ID", "Title", "Progress"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
		))
	}

	return strings.Join(lines, "\n") + "\n"
}

func progressLabel(percent int, known bool) string {
	if !known {
		return "-"
	}
	return fmt.Sprintf("%d%%", percent)
}

func categoryLabel(c queue.Category, colorize bool) string {
	label := c.Label()
	if !colorize {
		return label
	}
	return categoryColor(c).Sprint(label)
}

func categoryColor(c queue.Category) text.Colors {
	switch c {
	case queue.Queued:
		return text.Colors{text.FgBlue}
	case queue.Downloading:
		return text.Colors{text.FgCyan}
	case queue.Completed:
		return text.Colors{text.FgGreen}
	case queue.Errored:
		return text.Colors{text.FgRed}
	default:
		return nil
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = text.FgBlue.Sprint(line)
		rule = text.FgBlue.Sprint(rule)
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
