package library

import "testing"

func TestNewCatalogKeepsFirstOccurrence(t *testing.T) {
	c := NewCatalog([]Song{
		{Path: "/a.mp3", Title: "A"},
		{Path: "/b.mp3", Title: "B"},
		{Path: "/a.mp3", Title: "A again"},
		{Path: "", Title: "no path"},
	})
	if c.Len() != 2 {
		t.Fatalf("expected 2 songs, got %d", c.Len())
	}
	s, ok := c.Lookup("/a.mp3")
	if !ok || s.Title != "A" {
		t.Fatalf("expected first /a.mp3, got %+v ok=%v", s, ok)
	}
	if i, _ := c.Index("/b.mp3"); i != 1 {
		t.Errorf("expected /b.mp3 at index 1, got %d", i)
	}
}

func TestCatalogSongsIsACopy(t *testing.T) {
	c := NewCatalog([]Song{{Path: "/a.mp3", Title: "A"}})
	songs := c.Songs()
	songs[0].Title = "changed"
	if c.At(0).Title != "A" {
		t.Error("Songs() must not expose catalog storage")
	}
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	if c.Len() != 0 {
		t.Error("nil catalog should be empty")
	}
	if _, ok := c.Lookup("/a.mp3"); ok {
		t.Error("nil catalog should not find anything")
	}
	if c.Songs() != nil {
		t.Error("nil catalog should return nil songs")
	}
}
