package queue

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tunez/mixtape/internal/library"
)

func newTestStore(t *testing.T) *PersistenceStore {
	t.Helper()
	store, err := NewPersistenceStore(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("NewPersistenceStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPersistenceSaveLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q := New()
	q.Add(
		library.Song{Path: "/1.mp3", Title: "One", Artist: "A", BPM: library.Float(120)},
		library.Song{Path: "/2.mp3", Title: "Two", Artist: "B"},
		library.Song{Path: "/3.mp3", Title: "Three", Artist: "C"},
	)
	_ = q.SetCurrent(1)
	q.CycleRepeat() // RepeatAll

	if err := store.Save(ctx, q.Snapshot(), "recent_favorites"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	result, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(result.Songs) != 3 {
		t.Fatalf("expected 3 songs, got %d", len(result.Songs))
	}
	if result.CurrentIndex != 1 {
		t.Errorf("expected current index 1, got %d", result.CurrentIndex)
	}
	if result.Repeat != RepeatAll {
		t.Errorf("expected RepeatAll, got %v", result.Repeat)
	}
	if result.MixID != "recent_favorites" {
		t.Errorf("expected mix 'recent_favorites', got %q", result.MixID)
	}
	if result.Songs[0].BPM == nil || *result.Songs[0].BPM != 120 {
		t.Errorf("song features not restored: %+v", result.Songs[0])
	}

	restored := result.Queue()
	cur, _ := restored.Current()
	if cur.Path != "/2.mp3" || restored.RepeatMode() != RepeatAll {
		t.Errorf("restored queue mismatch: current %s repeat %v", cur.Path, restored.RepeatMode())
	}
}

func TestPersistenceEmptyQueue(t *testing.T) {
	store := newTestStore(t)
	result, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(result.Songs) != 0 || result.CurrentIndex != -1 {
		t.Errorf("expected empty queue, got %+v", result)
	}
}

func TestPersistenceClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q := New()
	q.Add(library.Song{Path: "/1.mp3"})
	if err := store.Save(ctx, q.Snapshot(), "x"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	result, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(result.Songs) != 0 || result.MixID != "" {
		t.Errorf("expected cleared queue, got %+v", result)
	}
}

func TestPersistenceInvalidIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q := New()
	q.Add(library.Song{Path: "/1.mp3"}, library.Song{Path: "/2.mp3"})
	q.current = 5

	if err := store.Save(ctx, q.Snapshot(), ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	result, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.CurrentIndex != 1 {
		t.Errorf("expected clamped index 1, got %d", result.CurrentIndex)
	}
}
