package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"github.com/tunez/mixtape/internal/mixes"
)

// mixSource exposes mix names to the fuzzy matcher.
type mixSource []mixes.Playlist

func (s mixSource) String(i int) string { return s[i].Name }
func (s mixSource) Len() int            { return len(s) }

// FilterState holds the fuzzy mix filter overlay state.
type FilterState struct {
	active   bool
	input    string
	matches  fuzzy.Matches
	selected int
	source   mixSource
}

func NewFilterState() *FilterState {
	return &FilterState{}
}

func (f *FilterState) Active() bool { return f.active }

func (f *FilterState) Open() {
	f.active = true
	f.input = ""
	f.selected = 0
	f.updateMatches()
}

func (f *FilterState) Close() {
	f.active = false
	f.input = ""
	f.matches = nil
	f.selected = 0
}

// SetMixes replaces the filtered list, e.g. after a regeneration.
func (f *FilterState) SetMixes(list []mixes.Playlist) {
	f.source = mixSource(list)
	f.updateMatches()
}

func (f *FilterState) Input() string { return f.input }

func (f *FilterState) InsertChar(ch rune) {
	f.input += string(ch)
	f.updateMatches()
}

func (f *FilterState) Backspace() {
	r := []rune(f.input)
	if len(r) == 0 {
		return
	}
	f.input = string(r[:len(r)-1])
	f.updateMatches()
}

func (f *FilterState) SelectUp() {
	if f.selected > 0 {
		f.selected--
	}
}

func (f *FilterState) SelectDown() {
	if f.selected < f.count()-1 {
		f.selected++
	}
}

// Selected returns the index into the mix list of the highlighted entry.
func (f *FilterState) Selected() (int, bool) {
	if f.input == "" {
		if f.selected < len(f.source) {
			return f.selected, true
		}
		return 0, false
	}
	if f.selected < len(f.matches) {
		return f.matches[f.selected].Index, true
	}
	return 0, false
}

func (f *FilterState) count() int {
	if f.input == "" {
		return len(f.source)
	}
	return len(f.matches)
}

func (f *FilterState) updateMatches() {
	f.selected = 0
	if f.input == "" {
		f.matches = nil
		return
	}
	f.matches = fuzzy.FindFrom(f.input, f.source)
}

// Render renders the filter overlay.
func (f *FilterState) Render(m *Model) string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("  Filter mixes  "))
	b.WriteString("\n\n")

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(40)
	b.WriteString(inputStyle.Render(f.input + "│"))
	b.WriteString("\n\n")

	type row struct {
		name    string
		songs   int
		matched []int
	}
	var rows []row
	if f.input == "" {
		for _, mix := range f.source {
			rows = append(rows, row{name: mix.Name, songs: len(mix.Songs)})
		}
	} else {
		for _, match := range f.matches {
			mix := f.source[match.Index]
			rows = append(rows, row{name: mix.Name, songs: len(mix.Songs), matched: match.MatchedIndexes})
		}
	}
	if len(rows) == 0 {
		b.WriteString(m.theme.Dim.Render("  No matching mixes"))
		b.WriteString("\n")
	}

	maxDisplay := 10
	start := 0
	if f.selected >= maxDisplay {
		start = f.selected - maxDisplay + 1
	}
	end := min(start+maxDisplay, len(rows))
	for i := start; i < end; i++ {
		r := rows[i]
		prefix := "   "
		if i == f.selected {
			prefix = m.theme.Selected.Render(" ▸ ")
		}
		name := highlightMatches(r.name, r.matched, m.theme.Accent)
		b.WriteString(prefix + name + m.theme.Dim.Render(fmt.Sprintf(" (%d)", r.songs)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Dim.Render("  ↑↓ navigate  Enter open  Esc close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// highlightMatches styles the matched byte offsets of s.
func highlightMatches(s string, indices []int, style lipgloss.Style) string {
	if len(indices) == 0 {
		return s
	}
	matched := make(map[int]bool, len(indices))
	for _, idx := range indices {
		matched[idx] = true
	}
	var out strings.Builder
	for i, ch := range s {
		if matched[i] {
			out.WriteString(style.Render(string(ch)))
		} else {
			out.WriteRune(ch)
		}
	}
	return out.String()
}
