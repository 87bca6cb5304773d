package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tunez/mixtape/internal/queue"
)

// queueWriter orders queue saves. Each save carries the sequence number it
// was issued with and a save older than the last one written is dropped, so
// commands finishing out of order never persist a stale queue.
type queueWriter struct {
	saver QueueSaver

	issued atomic.Uint64

	mu      sync.Mutex
	written uint64
}

func newQueueWriter(saver QueueSaver) *queueWriter {
	if saver == nil {
		return nil
	}
	return &queueWriter{saver: saver}
}

func (w *queueWriter) next() uint64 { return w.issued.Add(1) }

// write saves snap unless a newer save already went through. It reports
// whether the store was written.
func (w *queueWriter) write(ctx context.Context, seq uint64, snap queue.Snapshot, mixID string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq <= w.written {
		return false, nil
	}
	w.written = seq
	return true, w.saver.Save(ctx, snap, mixID)
}
