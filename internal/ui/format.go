package ui

import (
	"fmt"
	"strings"

	"github.com/tunez/mixtape/internal/library"
)

// SongLine renders a song as "Artist - Title" with optional BPM.
func SongLine(s library.Song) string {
	var b strings.Builder
	artist := s.Artist
	if artist == "" {
		artist = "Unknown Artist"
	}
	title := s.Title
	if title == "" {
		title = s.Path
	}
	b.WriteString(artist)
	b.WriteString(" - ")
	b.WriteString(title)
	if s.BPM != nil {
		fmt.Fprintf(&b, "  [%.0f bpm]", *s.BPM)
	}
	return b.String()
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

// MixIcon returns the list marker for a mix.
func MixIcon(favorite, noEmoji bool) string {
	switch {
	case noEmoji && favorite:
		return "*"
	case noEmoji:
		return "~"
	case favorite:
		return "★"
	default:
		return "♪"
	}
}
