package mixes

import (
	"sort"
	"time"

	"github.com/tunez/mixtape/internal/history"
	"github.com/tunez/mixtape/internal/library"
)

const (
	RecentFavoritesID  = "recent_favorites"
	PastFavoritesID    = "past_favorites"
	AllTimeFavoritesID = "all_time_favorites"

	// RecentWindow and PastWindow bound the history used for scoring.
	RecentWindow = 14 * 24 * time.Hour
	PastWindow   = 90 * 24 * time.Hour
)

var favoriteNames = map[string]string{
	RecentFavoritesID:  "Recent Favorites",
	PastFavoritesID:    "Past Favorites",
	AllTimeFavoritesID: "All-Time Favorites",
}

// playStats joins a play record with its catalog entry.
type playStats struct {
	song       library.Song
	index      int
	count      int
	lastPlayed time.Time
	record     history.PlayRecord
}

// Favorites ranks the catalog by play history into the recent, past and
// all-time favorite playlists. Records for paths missing from the catalog
// are ignored and empty playlists are left out.
func Favorites(plays history.Snapshot, catalog *library.Catalog, now time.Time) *Playlists {
	out := newPlaylists()
	if len(plays) == 0 {
		return out
	}
	stats := joinPlays(plays, catalog)

	recentFrom := now.Add(-RecentWindow)
	pastFrom := now.Add(-PastWindow)

	// recent: 2 points per play in the last two weeks plus half a point per lifetime play.
	// A play stamped exactly at now is recent.
	out.put(favoritePlaylist(RecentFavoritesID, rank(stats, 0, func(s playStats) float64 {
		return 2*float64(s.record.PlaysThrough(recentFrom, now)) + 0.5*float64(s.count)
	})))

	// past: played a lot one to three months ago, barely since
	out.put(favoritePlaylist(PastFavoritesID, rank(stats, 2, func(s playStats) float64 {
		recent := s.record.PlaysBetween(recentFrom, now)
		past := s.record.PlaysBetween(pastFrom, recentFrom)
		return float64(past - 2*recent)
	})))

	out.put(favoritePlaylist(AllTimeFavoritesID, rank(stats, 5, func(s playStats) float64 {
		return float64(s.count)
	})))

	out.dropEmpty()
	return out
}

// joinPlays resolves play records against the catalog, in catalog order.
func joinPlays(plays history.Snapshot, catalog *library.Catalog) []playStats {
	stats := make([]playStats, 0, len(plays))
	for path, rec := range plays {
		i, ok := catalog.Index(path)
		if !ok {
			continue
		}
		stats = append(stats, playStats{
			song:       catalog.At(i),
			index:      i,
			count:      rec.Count,
			lastPlayed: rec.LastPlayed(),
			record:     rec,
		})
	}
	sort.Slice(stats, func(a, b int) bool { return stats[a].index < stats[b].index })
	return stats
}

type scoredSong struct {
	playStats
	score float64
}

// rank keeps songs scoring strictly above threshold, best first. Ties go to
// the most recently played song, then to catalog order.
func rank(stats []playStats, threshold float64, score func(playStats) float64) []library.Song {
	var scored []scoredSong
	for _, s := range stats {
		if v := score(s); v > threshold {
			scored = append(scored, scoredSong{playStats: s, score: v})
		}
	}
	sort.Slice(scored, func(a, b int) bool {
		x, y := scored[a], scored[b]
		if x.score != y.score {
			return x.score > y.score
		}
		if !x.lastPlayed.Equal(y.lastPlayed) {
			return x.lastPlayed.After(y.lastPlayed)
		}
		return x.index < y.index
	})
	if len(scored) > MaxSongs {
		scored = scored[:MaxSongs]
	}
	songs := make([]library.Song, len(scored))
	for i, s := range scored {
		songs[i] = s.song
	}
	return songs
}

func favoritePlaylist(id string, songs []library.Song) Playlist {
	return Playlist{ID: id, Name: favoriteNames[id], Songs: songs}
}
