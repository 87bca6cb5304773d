// Package history stores per-song play counters and play timestamps.
package history

import (
	"errors"
	"time"
)

var ErrNegativeCount = errors.New("history: negative play count")

// PlayRecord is the play aggregate for one song. History is chronological,
// the last entry being the most recent play. Legacy records may carry a
// count without any history.
type PlayRecord struct {
	Count   int         `json:"count"`
	History []time.Time `json:"history,omitempty"`
}

// LastPlayed returns the most recent play, or the zero-epoch when the
// record has no history.
func (r PlayRecord) LastPlayed() time.Time {
	if len(r.History) == 0 {
		return time.Unix(0, 0).UTC()
	}
	return r.History[len(r.History)-1]
}

// PlaysBetween counts plays in the half-open interval [from, to).
func (r PlayRecord) PlaysBetween(from, to time.Time) int {
	n := 0
	for _, t := range r.History {
		if !t.Before(from) && t.Before(to) {
			n++
		}
	}
	return n
}

// PlaysThrough counts plays in the closed interval [from, to].
func (r PlayRecord) PlaysThrough(from, to time.Time) int {
	n := 0
	for _, t := range r.History {
		if !t.Before(from) && !t.After(to) {
			n++
		}
	}
	return n
}

// Snapshot maps a song path to its play record.
type Snapshot map[string]PlayRecord
