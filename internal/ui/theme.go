package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bindery/internal/prefs"
	"github.com/five82/bindery/internal/queue"
)

// Theme defines colors and styles for the UI.
type Theme struct {
	// Name is the preference value the theme was resolved from.
	Name string
	Dark bool

	Background string
	Surface    string
	SurfaceAlt string
	FocusBg    string

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	CategoryColors map[queue.Category]string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Surface: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)),

		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		FaintText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		categoryColors: t.CategoryColors,
		muted:          t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Surface lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	categoryColors map[queue.Category]string
	muted          string
}

// CategoryStyle returns the foreground style for a category label.
func (s Styles) CategoryStyle(c queue.Category) lipgloss.Style {
	color := s.categoryColors[c]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

// WithBackground returns a copy of Styles whose text styles carry bgColor.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	out.Surface = s.Surface.Background(bg)
	out.Text = s.Text.Background(bg)
	out.MutedText = s.MutedText.Background(bg)
	out.FaintText = s.FaintText.Background(bg)
	out.AccentText = s.AccentText.Background(bg)
	out.SuccessText = s.SuccessText.Background(bg)
	out.WarningText = s.WarningText.Background(bg)
	out.DangerText = s.DangerText.Background(bg)
	out.Header = s.Header.Background(bg)
	out.Logo = s.Logo.Background(bg)
	return out
}

// ResolveTheme turns a theme preference into a palette. "auto" follows the
// terminal background reported in dark.
func ResolveTheme(pref string, dark bool) Theme {
	pref = prefs.NormalizeTheme(pref)
	var t Theme
	switch {
	case pref == prefs.ThemeDark, pref == prefs.ThemeAuto && dark:
		t = nightPalette()
	default:
		t = dawnPalette()
	}
	t.Name = pref
	return t
}

// NextTheme returns the next theme preference in the cycle.
func NextTheme(current string) string {
	names := prefs.Themes()
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func nightPalette() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Dark: true,

		Background: "#131a24", // bg0
		Surface:    "#192330", // bg1
		SurfaceAlt: "#212e3f", // bg2
		FocusBg:    "#29394f", // bg3

		SelectionBg:   "#2b3b51", // sel0
		SelectionText: "#cdcecf", // fg1

		Border:      "#39506d", // bg4
		BorderFocus: "#719cd6", // blue

		Text:    "#cdcecf",
		Muted:   "#738091",
		Faint:   "#71839b",
		Accent:  "#719cd6",
		Success: "#81b29a",
		Warning: "#dbc074",
		Danger:  "#c94f6d",
		Info:    "#63cdcf",

		CategoryColors: map[queue.Category]string{
			queue.Queued:      "#738091",
			queue.Downloading: "#719cd6",
			queue.Completed:   "#81b29a",
			queue.Errored:     "#c94f6d",
		},
	}
}

func dawnPalette() Theme {
	// Dawnfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Dark: false,

		Background: "#faf4ed", // bg0
		Surface:    "#f2e9e1", // bg1
		SurfaceAlt: "#ebe0df", // bg2
		FocusBg:    "#e4d8d6",

		SelectionBg:   "#d0d8d8", // sel0
		SelectionText: "#575279", // fg1

		Border:      "#bdbfc9",
		BorderFocus: "#286983", // blue

		Text:    "#575279",
		Muted:   "#9893a5",
		Faint:   "#a8a3b3",
		Accent:  "#286983",
		Success: "#618774",
		Warning: "#ea9d34",
		Danger:  "#b4637a",
		Info:    "#56949f",

		CategoryColors: map[queue.Category]string{
			queue.Queued:      "#9893a5",
			queue.Downloading: "#286983",
			queue.Completed:   "#618774",
			queue.Errored:     "#b4637a",
		},
	}
}
