package mixes

import (
	"time"

	"github.com/tunez/mixtape/internal/library"
)

// Situations builds one playlist per pattern active at now, holding the
// matching songs in catalog order. Playlists nobody matched are left out.
func Situations(catalog *library.Catalog, patterns []Pattern, now time.Time) *Playlists {
	var rules []rule
	for _, p := range patterns {
		if p.Active(now) {
			rules = append(rules, compile(p))
		}
	}

	lists := make([][]library.Song, len(rules))
	full := 0
	for i := 0; i < catalog.Len() && full < len(rules); i++ {
		song := catalog.At(i)
		for j, r := range rules {
			if len(lists[j]) >= MaxSongs {
				continue
			}
			if _, ok := r.score(song); !ok {
				continue
			}
			lists[j] = append(lists[j], song)
			if len(lists[j]) == MaxSongs {
				full++
			}
		}
	}

	out := newPlaylists()
	for j, r := range rules {
		out.put(Playlist{ID: r.pattern.ID, Name: r.pattern.Name, Songs: lists[j]})
	}
	out.dropEmpty()
	return out
}
