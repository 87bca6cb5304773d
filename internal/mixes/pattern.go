package mixes

import (
	"sort"
	"strings"
	"time"

	"github.com/tunez/mixtape/internal/library"
)

// Component kinds understood by the matcher. Other keys never match.
const (
	KindBPM    = "bpm"
	KindTitle  = "title"
	KindGenre  = "genre"
	KindEnergy = "energy"
)

const defaultMinScore = 1.0

// Pattern describes a situational playlist: the songs it wants and,
// optionally, the time of day and days of the year it is offered.
type Pattern struct {
	ID        string
	Name      string
	TimeRange *Window // "HH:MM"
	DateRange *Window // "MM-DD"

	Components map[string]Component
	// Exclude is evaluated together with Components and adds to the score
	// like any other component. On a key clash the Exclude entry wins.
	Exclude  map[string]Component
	Required []string
	MinScore *float64
}

// Component is one scoring criterion. Which fields matter depends on the
// component key: phrases for title and genre, ranges for bpm and energy.
type Component struct {
	Phrases     []string
	BPMRange    *Span
	EnergyRange *Span
	Score       float64
}

// Span is an inclusive numeric range.
type Span struct {
	Low, High float64
}

func (s *Span) contains(v *float64) bool {
	if s == nil || v == nil {
		return false
	}
	return s.Low <= *v && *v <= s.High
}

// Window is an inclusive range of zero-padded "HH:MM" or "MM-DD" values.
// When From sorts after To the window wraps past midnight or year end.
type Window struct {
	From, To string
}

func (w *Window) contains(v string) bool {
	if w.From == "" || w.To == "" {
		return false
	}
	if w.From > w.To {
		return v >= w.From || v <= w.To
	}
	return w.From <= v && v <= w.To
}

// Active reports whether the pattern applies at now. Patterns without
// ranges are always active; otherwise every present range must hold.
func (p Pattern) Active(now time.Time) bool {
	if p.TimeRange != nil && !p.TimeRange.contains(now.Format("15:04")) {
		return false
	}
	if p.DateRange != nil && !p.DateRange.contains(now.Format("01-02")) {
		return false
	}
	return true
}

// Score evaluates the pattern against song and reports the accumulated
// score and whether the song matches.
func (p Pattern) Score(song library.Song) (float64, bool) {
	return compile(p).score(song)
}

// rule is a Pattern flattened for repeated evaluation.
type rule struct {
	pattern    Pattern
	components []keyedComponent
	required   []string
	minScore   float64
}

type keyedComponent struct {
	key string
	Component
}

func compile(p Pattern) rule {
	merged := make(map[string]Component, len(p.Components)+len(p.Exclude))
	for k, c := range p.Components {
		merged[k] = c
	}
	for k, c := range p.Exclude {
		merged[k] = c
	}
	r := rule{pattern: p, required: p.Required, minScore: defaultMinScore}
	if p.MinScore != nil {
		r.minScore = *p.MinScore
	}
	for k, c := range merged {
		r.components = append(r.components, keyedComponent{key: k, Component: c})
	}
	sort.Slice(r.components, func(a, b int) bool { return r.components[a].key < r.components[b].key })
	return r
}

func (r rule) score(song library.Song) (float64, bool) {
	total := 0.0
	satisfied := make(map[string]bool, len(r.required))
	for _, c := range r.components {
		if !c.matches(song) {
			continue
		}
		total += c.Score
		satisfied[c.key] = true
	}
	for _, key := range r.required {
		if !satisfied[key] {
			return total, false
		}
	}
	return total, total >= r.minScore
}

func (c keyedComponent) matches(song library.Song) bool {
	switch c.key {
	case KindBPM:
		return c.BPMRange.contains(song.BPM)
	case KindEnergy:
		return c.EnergyRange.contains(song.Energy)
	case KindTitle:
		return containsAny(song.Title, c.Phrases)
	case KindGenre:
		return song.Genre != "" && containsAny(song.Genre, c.Phrases)
	}
	return false
}

// containsAny does a case-insensitive substring search. Empty phrases are
// ignored.
func containsAny(s string, phrases []string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, ph := range phrases {
		if ph == "" {
			continue
		}
		if strings.Contains(s, strings.ToLower(ph)) {
			return true
		}
	}
	return false
}
