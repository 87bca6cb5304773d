package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tunez/mixtape/internal/library"
	"github.com/tunez/mixtape/internal/mixes"
	"github.com/tunez/mixtape/internal/ui"
)

func TestDiagnosticsState(t *testing.T) {
	t.Run("initial state", func(t *testing.T) {
		d := NewDiagnosticsState()
		if d.Runs != 0 || d.StartTime.IsZero() {
			t.Errorf("unexpected initial state: %+v", d)
		}
		if d.AverageDuration() != 0 {
			t.Error("average with no runs should be 0")
		}
	})

	t.Run("record generation", func(t *testing.T) {
		d := NewDiagnosticsState()
		lists := mixes.Situations(library.NewCatalog(testSongs), testPatterns, time.Now())
		d.RecordGeneration(100*time.Millisecond, lists, nil)
		d.RecordGeneration(200*time.Millisecond, lists, nil)
		if d.Runs != 2 || d.MixCount != 2 || d.SongCount != 4 {
			t.Errorf("unexpected counts: %+v", d)
		}
		if d.AverageDuration() != 150*time.Millisecond {
			t.Errorf("expected 150ms, got %v", d.AverageDuration())
		}
	})

	t.Run("failure keeps last mixes", func(t *testing.T) {
		d := NewDiagnosticsState()
		lists := mixes.Situations(library.NewCatalog(testSongs), testPatterns, time.Now())
		d.RecordGeneration(time.Millisecond, lists, nil)
		d.RecordGeneration(time.Millisecond, nil, errors.New("boom"))
		if d.Failures != 1 || d.LastError != "boom" || d.MixCount != 2 {
			t.Errorf("unexpected state after failure: %+v", d)
		}
	})
}

func TestDiagnosticsRender(t *testing.T) {
	m := New(&fakeGenerator{}, Options{Theme: ui.NoColor()})
	out := m.diag.Render(&m)
	for _, want := range []string{"Diagnostics", "Generation", "Queue", "Ctrl+D"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
