package mixes

import (
	"reflect"
	"testing"

	"github.com/tunez/mixtape/internal/library"
)

func TestPlaylistsOrderAndEmptyDrop(t *testing.T) {
	p := newPlaylists()
	p.put(Playlist{ID: "a", Songs: []library.Song{{Path: "/1"}}})
	p.put(Playlist{ID: "b"})
	p.put(Playlist{ID: "c", Songs: []library.Song{{Path: "/2"}}})
	p.put(Playlist{ID: "a", Name: "replaced", Songs: []library.Song{{Path: "/3"}}})
	p.dropEmpty()

	if !reflect.DeepEqual(p.IDs(), []string{"a", "c"}) {
		t.Errorf("IDs() = %v", p.IDs())
	}
	a, _ := p.Get("a")
	if a.Name != "replaced" {
		t.Errorf("expected replacement to keep position, got %+v", a)
	}
	if _, ok := p.Get("b"); ok {
		t.Error("empty playlist should be dropped")
	}
}

func TestPlaylistsMerge(t *testing.T) {
	left := newPlaylists()
	left.put(Playlist{ID: "x", Songs: []library.Song{{Path: "/1"}}})
	right := newPlaylists()
	right.put(Playlist{ID: "y", Songs: []library.Song{{Path: "/2"}}})

	var none *Playlists
	got := none.Merge(left).Merge(right)
	if !reflect.DeepEqual(got.IDs(), []string{"x", "y"}) {
		t.Errorf("IDs() = %v", got.IDs())
	}
	if left.Len() != 1 {
		t.Error("Merge must not modify its receiver")
	}
}
