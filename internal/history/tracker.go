package history

import (
	"context"
	"sync"
	"time"
)

// Recorder receives plays that crossed the listening threshold.
type Recorder interface {
	RecordPlay(ctx context.Context, path string, at time.Time) error
}

// Tracker decides when a listen counts as a play: after MinPlay of
// listening, or after MinFraction of a song with a known duration.
type Tracker struct {
	mu          sync.Mutex
	minPlay     time.Duration
	minFraction float64

	path     string
	duration time.Duration
	started  time.Time
	listened time.Duration
	counted  bool
}

// NewTracker creates a tracker. Non-positive thresholds fall back to
// 4 minutes and 50%.
func NewTracker(minPlay time.Duration, minFraction float64) *Tracker {
	if minPlay <= 0 {
		minPlay = 4 * time.Minute
	}
	if minFraction <= 0 || minFraction > 1 {
		minFraction = 0.5
	}
	return &Tracker{minPlay: minPlay, minFraction: minFraction}
}

// Start begins tracking a new song. duration may be zero when unknown.
func (t *Tracker) Start(path string, duration time.Duration, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.path = path
	t.duration = duration
	t.started = at
	t.listened = 0
	t.counted = false
}

// UpdatePosition reports the playback position. Paused updates are ignored.
func (t *Tracker) UpdatePosition(position time.Duration, paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.path == "" || paused {
		return
	}
	t.listened = position
}

// ShouldCount reports whether the current song has been listened to long enough.
func (t *Tracker) ShouldCount() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shouldCountLocked()
}

func (t *Tracker) shouldCountLocked() bool {
	if t.path == "" {
		return false
	}
	if t.listened >= t.minPlay {
		return true
	}
	if t.duration > 0 {
		threshold := time.Duration(float64(t.duration) * t.minFraction)
		if t.listened >= threshold {
			return true
		}
	}
	return false
}

// Finish records the current song with rec if it crossed the threshold and
// was not recorded yet. It reports whether a play was recorded.
func (t *Tracker) Finish(ctx context.Context, rec Recorder) (bool, error) {
	t.mu.Lock()
	if t.counted || !t.shouldCountLocked() {
		t.mu.Unlock()
		return false, nil
	}
	path, at := t.path, t.started
	t.counted = true
	t.mu.Unlock()

	if err := rec.RecordPlay(ctx, path, at); err != nil {
		t.mu.Lock()
		t.counted = false
		t.mu.Unlock()
		return false, err
	}
	return true, nil
}
