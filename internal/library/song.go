// Package library holds the song catalog and the sqlite index it is read from.
package library

// Song is a single audio file known to the library. Path is the unique key.
//
// BPM and Energy come from tag data or an external analysis pipeline and
// are nil when unknown. Consumers must treat nil as "no data", never as zero.
type Song struct {
	Path        string   `json:"path"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	AlbumArtist string   `json:"album_artist,omitempty"`
	Album       string   `json:"album"`
	Genre       string   `json:"genre,omitempty"`
	BPM         *float64 `json:"bpm,omitempty"`
	Energy      *float64 `json:"energy,omitempty"` // 0-10
	DurationSec *int     `json:"duration,omitempty"`
}

// Catalog is a read-only, ordered view of the library keyed by path.
// A nil *Catalog behaves like an empty one.
type Catalog struct {
	songs []Song
	index map[string]int
}

// NewCatalog builds a catalog from songs in iteration order. When a path
// appears more than once the first occurrence wins.
func NewCatalog(songs []Song) *Catalog {
	c := &Catalog{
		songs: make([]Song, 0, len(songs)),
		index: make(map[string]int, len(songs)),
	}
	for _, s := range songs {
		if s.Path == "" {
			continue
		}
		if _, dup := c.index[s.Path]; dup {
			continue
		}
		c.index[s.Path] = len(c.songs)
		c.songs = append(c.songs, s)
	}
	return c
}

// Len returns the number of songs.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.songs)
}

// Songs returns a copy of the songs in catalog order.
func (c *Catalog) Songs() []Song {
	if c == nil {
		return nil
	}
	out := make([]Song, len(c.songs))
	copy(out, c.songs)
	return out
}

// At returns the song at position i in catalog order.
func (c *Catalog) At(i int) Song {
	return c.songs[i]
}

// Lookup returns the song stored under path.
func (c *Catalog) Lookup(path string) (Song, bool) {
	i, ok := c.Index(path)
	if !ok {
		return Song{}, false
	}
	return c.songs[i], true
}

// Index returns the catalog position of path.
func (c *Catalog) Index(path string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.index[path]
	return i, ok
}

// Float returns a pointer to v. Handy for building songs with features.
func Float(v float64) *float64 { return &v }
