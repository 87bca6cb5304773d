package mixes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

var ErrNoPatterns = errors.New("mixes: no patterns")

// Pattern file formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// ParsePatterns decodes a pattern file. JSON files hold either an array of
// patterns or an object with a "patterns" array; TOML files use
// [[patterns]] tables. Patterns that cannot be used (no id, duplicate id)
// are skipped and described in problems. Unusable field values are kept as
// never-matching rather than rejected.
func ParsePatterns(data []byte, format string) (patterns []Pattern, problems []string, err error) {
	var doc any
	switch format {
	case FormatTOML:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, nil, fmt.Errorf("parse toml patterns: %w", err)
		}
		doc = m
	case FormatJSON, "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("parse json patterns: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unknown pattern format %q", format)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items, _ = v["patterns"].([]any)
		if items == nil {
			// go-toml decodes arrays of tables as []map[string]any
			if tables, ok := v["patterns"].([]map[string]any); ok {
				for _, t := range tables {
					items = append(items, t)
				}
			}
		}
	}
	if len(items) == 0 {
		return nil, nil, ErrNoPatterns
	}

	seen := map[string]bool{}
	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			problems = append(problems, fmt.Sprintf("pattern #%d: not an object", i))
			continue
		}
		p := decodePattern(raw)
		switch {
		case p.ID == "":
			problems = append(problems, fmt.Sprintf("pattern #%d: missing id", i))
			continue
		case seen[p.ID]:
			problems = append(problems, fmt.Sprintf("pattern %q: duplicate id", p.ID))
			continue
		}
		seen[p.ID] = true
		patterns = append(patterns, p)
	}
	return patterns, problems, nil
}

func decodePattern(raw map[string]any) Pattern {
	p := Pattern{
		ID:         stringField(raw["id"]),
		Name:       stringField(raw["name"]),
		Components: decodeComponents(raw["components"]),
		Exclude:    decodeComponents(raw["exclude"]),
		Required:   stringList(raw["required"]),
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	if v, ok := raw["time_range"]; ok && v != nil {
		p.TimeRange = decodeWindow(v, ':', 23, 59)
	}
	if v, ok := raw["date_range"]; ok && v != nil {
		p.DateRange = decodeWindow(v, '-', 12, 31)
	}
	if v, ok := number(raw["minScore"]); ok {
		p.MinScore = &v
	}
	return p
}

func decodeComponents(v any) map[string]Component {
	raw, ok := v.(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]Component, len(raw))
	for key, item := range raw {
		m, _ := item.(map[string]any)
		score, _ := number(m["score"])
		out[key] = Component{
			Phrases:     stringList(m["phrases"]),
			BPMRange:    decodeSpan(m["bpm_range"]),
			EnergyRange: decodeSpan(m["energy_range"]),
			Score:       score,
		}
	}
	return out
}

// decodeSpan returns nil unless v is a pair of numbers.
func decodeSpan(v any) *Span {
	list, ok := v.([]any)
	if !ok || len(list) != 2 {
		return nil
	}
	low, ok1 := number(list[0])
	high, ok2 := number(list[1])
	if !ok1 || !ok2 {
		return nil
	}
	return &Span{Low: low, High: high}
}

// decodeWindow normalises a pair of "A<sep>B" values to zero-padded form.
// A malformed window is returned empty so the pattern is never active.
func decodeWindow(v any, sep byte, maxA, maxB int) *Window {
	list, ok := v.([]any)
	if !ok || len(list) != 2 {
		return &Window{}
	}
	from, ok1 := clockValue(stringField(list[0]), sep, maxA, maxB)
	to, ok2 := clockValue(stringField(list[1]), sep, maxA, maxB)
	if !ok1 || !ok2 {
		return &Window{}
	}
	return &Window{From: from, To: to}
}

func clockValue(s string, sep byte, maxA, maxB int) (string, bool) {
	a, b, found := strings.Cut(strings.TrimSpace(s), string(sep))
	if !found || len(a) == 0 || len(a) > 2 || len(b) != 2 {
		return "", false
	}
	x, err := strconv.Atoi(a)
	if err != nil || x < 0 || x > maxA {
		return "", false
	}
	y, err := strconv.Atoi(b)
	if err != nil || y < 0 || y > maxB {
		return "", false
	}
	return fmt.Sprintf("%02d%c%02d", x, sep, y), true
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// number accepts the numeric types produced by encoding/json and go-toml.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}
