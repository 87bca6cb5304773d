package mixes

import (
	"time"

	"github.com/tunez/mixtape/internal/library"
)

// Matcher evaluates the patterns held by a cache against a catalog.
type Matcher struct {
	patterns *PatternCache
}

// NewMatcher creates a matcher backed by cache.
func NewMatcher(cache *PatternCache) *Matcher {
	return &Matcher{patterns: cache}
}

// Patterns returns the patterns the matcher evaluates.
func (m *Matcher) Patterns() []Pattern {
	return m.patterns.Patterns()
}

// Playlists returns the situational playlists active at now.
func (m *Matcher) Playlists(catalog *library.Catalog, now time.Time) *Playlists {
	return Situations(catalog, m.patterns.Patterns(), now)
}
