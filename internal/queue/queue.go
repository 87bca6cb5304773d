// Package queue keeps the ordered list of songs lined up for playback.
package queue

import (
	"errors"
	"math/rand"

	"github.com/tunez/mixtape/internal/library"
)

type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

var (
	ErrEmpty      = errors.New("queue is empty")
	ErrEnd        = errors.New("end of queue")
	ErrOutOfRange = errors.New("index out of range")
)

// Queue maintains an ordered list of songs and the current position.
type Queue struct {
	items      []library.Song
	current    int
	repeatMode RepeatMode
	shuffled   bool
	original   []library.Song
}

func New() *Queue {
	return &Queue{items: []library.Song{}, current: -1}
}

// Snapshot is a copy of the queue state. It shares nothing with the queue
// and can be handed to another goroutine.
type Snapshot struct {
	Songs        []library.Song
	CurrentIndex int
	Shuffled     bool
	Repeat       RepeatMode
}

// Snapshot copies the current state.
func (q *Queue) Snapshot() Snapshot {
	return Snapshot{
		Songs:        q.Items(),
		CurrentIndex: q.current,
		Shuffled:     q.shuffled,
		Repeat:       q.repeatMode,
	}
}

// Queue rebuilds a Queue from the snapshot. The shuffled flag is kept but
// the pre-shuffle order is not, so toggling shuffle off keeps the current
// order.
func (s Snapshot) Queue() *Queue {
	q := New()
	q.Add(s.Songs...)
	if s.CurrentIndex >= 0 && s.CurrentIndex < len(s.Songs) {
		q.current = s.CurrentIndex
	}
	q.repeatMode = s.Repeat
	q.shuffled = s.Shuffled
	return q
}

func (q *Queue) Items() []library.Song {
	out := make([]library.Song, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Current() (library.Song, error) {
	if q.current < 0 || q.current >= len(q.items) {
		return library.Song{}, ErrEmpty
	}
	return q.items[q.current], nil
}

func (q *Queue) CurrentIndex() int { return q.current }

func (q *Queue) Add(songs ...library.Song) {
	q.items = append(q.items, songs...)
	if q.current == -1 && len(q.items) > 0 {
		q.current = 0
	}
}

// AddUnique appends the songs that are not queued yet and returns how many
// were added.
func (q *Queue) AddUnique(songs ...library.Song) int {
	queued := make(map[string]bool, len(q.items))
	for _, s := range q.items {
		queued[s.Path] = true
	}
	var fresh []library.Song
	for _, s := range songs {
		if queued[s.Path] {
			continue
		}
		queued[s.Path] = true
		fresh = append(fresh, s)
	}
	q.Add(fresh...)
	return len(fresh)
}

// AddNext inserts song right after the current one. A song that is already
// queued is moved there instead of being duplicated.
func (q *Queue) AddNext(song library.Song) {
	for i, s := range q.items {
		if s.Path != song.Path {
			continue
		}
		if i == q.current {
			return
		}
		q.items = append(q.items[:i], q.items[i+1:]...)
		if i < q.current {
			q.current--
		}
		break
	}
	if q.current == -1 {
		q.items = []library.Song{song}
		q.current = 0
		return
	}
	idx := q.current + 1
	q.items = append(q.items[:idx], append([]library.Song{song}, q.items[idx:]...)...)
}

func (q *Queue) Remove(idx int) error {
	if idx < 0 || idx >= len(q.items) {
		return ErrOutOfRange
	}
	q.items = append(q.items[:idx], q.items[idx+1:]...)
	if len(q.items) == 0 {
		q.current = -1
		return nil
	}
	if idx < q.current {
		q.current--
	} else if idx == q.current && q.current >= len(q.items) {
		q.current = len(q.items) - 1
	}
	return nil
}

func (q *Queue) Move(from, to int) error {
	if from < 0 || from >= len(q.items) || to < 0 || to >= len(q.items) {
		return ErrOutOfRange
	}
	if from == to {
		return nil
	}
	song := q.items[from]
	q.items = append(q.items[:from], q.items[from+1:]...)
	q.items = append(q.items[:to], append([]library.Song{song}, q.items[to:]...)...)
	switch {
	case q.current == from:
		q.current = to
	case from < q.current && to >= q.current:
		q.current--
	case from > q.current && to <= q.current:
		q.current++
	}
	return nil
}

// ToggleShuffle shuffles the queue, or restores the order from before the
// shuffle. The current song stays current either way.
func (q *Queue) ToggleShuffle() {
	cur, _ := q.Current()
	q.shuffled = !q.shuffled
	if q.shuffled {
		q.original = make([]library.Song, len(q.items))
		copy(q.original, q.items)
		rand.Shuffle(len(q.items), func(i, j int) {
			q.items[i], q.items[j] = q.items[j], q.items[i]
		})
	} else if q.original != nil {
		q.items = q.original
		q.original = nil
	}
	if cur.Path == "" {
		return
	}
	for i, s := range q.items {
		if s.Path == cur.Path {
			q.current = i
			break
		}
	}
}

func (q *Queue) CycleRepeat() RepeatMode {
	q.repeatMode = (q.repeatMode + 1) % 3
	return q.repeatMode
}

func (q *Queue) RepeatMode() RepeatMode { return q.repeatMode }

func (q *Queue) IsShuffled() bool { return q.shuffled }

func (q *Queue) Next() (library.Song, error) {
	if len(q.items) == 0 {
		return library.Song{}, ErrEmpty
	}
	if q.repeatMode == RepeatOne {
		if q.current == -1 {
			q.current = 0
		}
		return q.items[q.current], nil
	}
	switch {
	case q.current < len(q.items)-1:
		q.current++
	case q.repeatMode == RepeatAll:
		q.current = 0
	default:
		return library.Song{}, ErrEnd
	}
	return q.items[q.current], nil
}

func (q *Queue) Prev() (library.Song, error) {
	if len(q.items) == 0 {
		return library.Song{}, ErrEmpty
	}
	if q.current > 0 {
		q.current--
	}
	return q.items[q.current], nil
}

func (q *Queue) SetCurrent(idx int) error {
	if idx < 0 || idx >= len(q.items) {
		return ErrOutOfRange
	}
	q.current = idx
	return nil
}

func (q *Queue) Clear() {
	q.items = []library.Song{}
	q.original = nil
	q.current = -1
}
