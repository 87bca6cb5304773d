// Package mixes generates personalised playlists from play history and from
// declarative mood patterns. Both engines are pure functions over snapshots
// of the library and the play counters; Generator wires them to the stores.
package mixes

import "github.com/tunez/mixtape/internal/library"

// MaxSongs caps every generated playlist.
const MaxSongs = 20

// Playlist is a generated, ordered list of distinct songs.
type Playlist struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Songs []library.Song `json:"songs"`
}

// Playlists is an insertion-ordered set of playlists keyed by ID.
// A nil *Playlists behaves like an empty set.
type Playlists struct {
	order []string
	byID  map[string]Playlist
}

func newPlaylists() *Playlists {
	return &Playlists{byID: map[string]Playlist{}}
}

// put stores pl, replacing an existing playlist with the same ID in place.
func (p *Playlists) put(pl Playlist) {
	if _, ok := p.byID[pl.ID]; !ok {
		p.order = append(p.order, pl.ID)
	}
	p.byID[pl.ID] = pl
}

// dropEmpty removes playlists without songs.
func (p *Playlists) dropEmpty() {
	kept := p.order[:0]
	for _, id := range p.order {
		if len(p.byID[id].Songs) == 0 {
			delete(p.byID, id)
			continue
		}
		kept = append(kept, id)
	}
	p.order = kept
}

// Len returns the number of playlists.
func (p *Playlists) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// IDs returns playlist IDs in order.
func (p *Playlists) IDs() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Get returns the playlist with the given ID.
func (p *Playlists) Get(id string) (Playlist, bool) {
	if p == nil {
		return Playlist{}, false
	}
	pl, ok := p.byID[id]
	return pl, ok
}

// All returns the playlists in order.
func (p *Playlists) All() []Playlist {
	if p == nil {
		return nil
	}
	out := make([]Playlist, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id])
	}
	return out
}

// Merge returns a new set holding p followed by other. Playlists in other
// replace same-ID playlists of p.
func (p *Playlists) Merge(other *Playlists) *Playlists {
	out := newPlaylists()
	for _, pl := range p.All() {
		out.put(pl)
	}
	for _, pl := range other.All() {
		out.put(pl)
	}
	return out
}
