package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the set of styles the mixes browser renders with.
type Theme struct {
	Name     string
	Accent   lipgloss.Style
	Dim      lipgloss.Style
	Text     lipgloss.Style
	Title    lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Border   lipgloss.Style
	Selected lipgloss.Style
	// Favorite and Mood tag history-based and situational mixes.
	Favorite lipgloss.Style
	Mood     lipgloss.Style
}

type palette struct {
	accent, dim, text, title, errc, success, border, selected, favorite, mood string
}

var palettes = map[string]palette{
	"rainbow": {
		accent: "#FF6FF7", dim: "#6C6F93", text: "#E6E6FA", title: "#8EEBFF",
		errc: "#FF5F56", success: "#5CFF5C", border: "#7C7CFF", selected: "#FFA7C4",
		favorite: "#FFD166", mood: "#8EEBFF",
	},
	"mono": {
		accent: "#FFFFFF", dim: "#666666", text: "#CCCCCC", title: "#FFFFFF",
		errc: "#FFFFFF", success: "#CCCCCC", border: "#888888", selected: "#FFFFFF",
		favorite: "#DDDDDD", mood: "#AAAAAA",
	},
	"green": {
		accent: "#00FF00", dim: "#005500", text: "#00CC00", title: "#00FF00",
		errc: "#00FF00", success: "#00FF00", border: "#008800", selected: "#00FF00",
		favorite: "#00FF00", mood: "#00CC00",
	},
	"amber": {
		accent: "#FFB000", dim: "#7A5200", text: "#FFCC66", title: "#FFB000",
		errc: "#FF5F00", success: "#FFD27F", border: "#B37A00", selected: "#FFE0A3",
		favorite: "#FFB000", mood: "#FFCC66",
	},
}

func (p palette) theme(name string) Theme {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Theme{
		Name:     name,
		Accent:   fg(p.accent).Bold(true),
		Dim:      fg(p.dim),
		Text:     fg(p.text),
		Title:    fg(p.title).Bold(true),
		Error:    fg(p.errc).Bold(true),
		Success:  fg(p.success).Bold(true),
		Border:   fg(p.border),
		Selected: fg(p.selected).Bold(true).Underline(true),
		Favorite: fg(p.favorite),
		Mood:     fg(p.mood).Italic(true),
	}
}

// ThemeNames returns the available theme names, sorted.
func ThemeNames() []string {
	names := []string{"nocolor"}
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetTheme returns a theme by name. Unknown names fall back to rainbow;
// noColor always wins.
func GetTheme(name string, noColor bool) Theme {
	if noColor || name == "nocolor" {
		return NoColor()
	}
	if p, ok := palettes[name]; ok {
		return p.theme(name)
	}
	return palettes["rainbow"].theme("rainbow")
}

// ValidTheme reports whether name is a known theme.
func ValidTheme(name string) bool {
	if name == "nocolor" {
		return true
	}
	_, ok := palettes[name]
	return ok
}

// NoColor is a high-contrast theme for NO_COLOR environments.
// Uses only bold, underline, and reverse instead of colors.
func NoColor() Theme {
	reset := lipgloss.NewStyle()
	return Theme{
		Name:     "nocolor",
		Accent:   reset.Bold(true),
		Dim:      reset,
		Text:     reset,
		Title:    reset.Bold(true),
		Error:    reset.Bold(true),
		Success:  reset.Bold(true),
		Border:   reset,
		Selected: reset.Reverse(true),
		Favorite: reset,
		Mood:     reset.Italic(true),
	}
}
