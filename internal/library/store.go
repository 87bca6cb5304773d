package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Features are acoustic values produced by an analysis pipeline outside the
// library scanner. A nil field leaves the stored value untouched.
type Features struct {
	BPM    *float64
	Energy *float64
}

// Store is the sqlite index backing the catalog.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the index at dbPath and migrates its schema.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS songs (
			path TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album_artist TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL,
			genre TEXT NOT NULL DEFAULT '',
			tag_bpm REAL,
			duration_sec INTEGER,
			file_size INTEGER,
			file_mtime INTEGER,
			format TEXT
		);`,
		// features outlive rescans, so they are not stored on songs
		`CREATE TABLE IF NOT EXISTS features (
			path TEXT PRIMARY KEY,
			bpm REAL,
			energy REAL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist, album, title);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate index schema: %w", err)
		}
	}
	return nil
}

// Put inserts or replaces a song row. Energy is ignored here; use SetFeatures.
func (s *Store) Put(ctx context.Context, song Song) error {
	if s.db == nil {
		return ErrNotOpen
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO songs(path,title,artist,album_artist,album,genre,tag_bpm,duration_sec) VALUES(?,?,?,?,?,?,?,?)`,
		song.Path, song.Title, song.Artist, song.AlbumArtist, song.Album, song.Genre, nullFloat(song.BPM), nullInt(song.DurationSec))
	if err != nil {
		return fmt.Errorf("put song %s: %w", song.Path, err)
	}
	return nil
}

// SetFeatures records analysed features for path. The song does not need to
// be indexed yet; features are joined in when the catalog is read.
func (s *Store) SetFeatures(ctx context.Context, path string, f Features) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if f.Energy != nil && (*f.Energy < 0 || *f.Energy > 10) {
		return fmt.Errorf("energy %.2f for %s: %w", *f.Energy, path, ErrInvalidRange)
	}
	if f.BPM != nil && *f.BPM <= 0 {
		return fmt.Errorf("bpm %.2f for %s: %w", *f.BPM, path, ErrInvalidRange)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO features(path,bpm,energy) VALUES(?,?,?)
		 ON CONFLICT(path) DO UPDATE SET
			bpm = COALESCE(excluded.bpm, features.bpm),
			energy = COALESCE(excluded.energy, features.energy)`,
		path, nullFloat(f.BPM), nullFloat(f.Energy))
	if err != nil {
		return fmt.Errorf("set features %s: %w", path, err)
	}
	return nil
}

const songColumns = `s.path, s.title, s.artist, s.album_artist, s.album, s.genre,
	COALESCE(f.bpm, s.tag_bpm), f.energy, s.duration_sec`

// Catalog reads every indexed song, ordered by path.
func (s *Store) Catalog(ctx context.Context) (*Catalog, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+songColumns+` FROM songs s LEFT JOIN features f ON f.path = s.path ORDER BY s.path`)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return NewCatalog(songs), nil
}

// Get returns a single song by path.
func (s *Store) Get(ctx context.Context, path string) (Song, error) {
	if s.db == nil {
		return Song{}, ErrNotOpen
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+songColumns+` FROM songs s LEFT JOIN features f ON f.path = s.path WHERE s.path = ?`, path)
	song, err := scanSong(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Song{}, ErrNotFound
		}
		return Song{}, err
	}
	return song, nil
}

// Count returns the number of indexed songs.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return n, nil
}

// Health pings the database.
func (s *Store) Health(ctx context.Context) (bool, string) {
	if s.db == nil {
		return false, "db not initialized"
	}
	if err := s.db.PingContext(ctx); err != nil {
		return false, err.Error()
	}
	return true, "ok"
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(r rowScanner) (Song, error) {
	var (
		song     Song
		bpm      sql.NullFloat64
		energy   sql.NullFloat64
		duration sql.NullInt64
	)
	if err := r.Scan(&song.Path, &song.Title, &song.Artist, &song.AlbumArtist, &song.Album, &song.Genre, &bpm, &energy, &duration); err != nil {
		return Song{}, err
	}
	if bpm.Valid {
		song.BPM = Float(bpm.Float64)
	}
	if energy.Valid {
		song.Energy = Float(energy.Float64)
	}
	if duration.Valid {
		d := int(duration.Int64)
		song.DurationSec = &d
	}
	return song, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
