package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tunez/mixtape/internal/library"
	_ "modernc.org/sqlite"
)

// PersistenceStore saves the queue between sessions.
type PersistenceStore struct {
	db *sql.DB
}

// NewPersistenceStore opens the queue database at dbPath.
func NewPersistenceStore(dbPath string) (*PersistenceStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open queue db: %w", err)
	}
	store := &PersistenceStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PersistenceStore) ensureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS queue_items (
			position INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			song_json TEXT NOT NULL,
			added_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS queue_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_index INTEGER NOT NULL DEFAULT -1,
			shuffle_enabled INTEGER NOT NULL DEFAULT 0,
			repeat_mode INTEGER NOT NULL DEFAULT 0,
			mix_id TEXT NOT NULL DEFAULT ''
		);`,
		`INSERT OR IGNORE INTO queue_state (id, current_index, shuffle_enabled, repeat_mode, mix_id)
		 VALUES (1, -1, 0, 0, '');`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate queue schema: %w", err)
		}
	}
	return nil
}

// Save replaces the stored queue with snap. mixID names the generated
// playlist the queue was last filled from, if any.
func (s *PersistenceStore) Save(ctx context.Context, snap Snapshot, mixID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_items`); err != nil {
		return fmt.Errorf("clear queue items: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO queue_items (position, path, song_json, added_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	addedAt := time.Now().Unix()
	for i, song := range snap.Songs {
		songJSON, err := json.Marshal(song)
		if err != nil {
			return fmt.Errorf("marshal song %s: %w", song.Path, err)
		}
		if _, err := stmt.ExecContext(ctx, i, song.Path, string(songJSON), addedAt); err != nil {
			return fmt.Errorf("insert song %s: %w", song.Path, err)
		}
	}

	shuffle := 0
	if snap.Shuffled {
		shuffle = 1
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE queue_state SET current_index = ?, shuffle_enabled = ?, repeat_mode = ?, mix_id = ? WHERE id = 1`,
		snap.CurrentIndex, shuffle, int(snap.Repeat), mixID); err != nil {
		return fmt.Errorf("update queue state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadResult is a queue read back from the store.
type LoadResult struct {
	Snapshot
	MixID string
}

// Load reads the stored queue. Rows that no longer decode are skipped.
func (s *PersistenceStore) Load(ctx context.Context) (LoadResult, error) {
	result := LoadResult{Snapshot: Snapshot{CurrentIndex: -1}}

	var shuffle int
	err := s.db.QueryRowContext(ctx,
		`SELECT current_index, shuffle_enabled, repeat_mode, mix_id FROM queue_state WHERE id = 1`).
		Scan(&result.CurrentIndex, &shuffle, &result.Repeat, &result.MixID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return result, fmt.Errorf("load queue state: %w", err)
	}
	result.Shuffled = shuffle == 1

	rows, err := s.db.QueryContext(ctx, `SELECT song_json FROM queue_items ORDER BY position ASC`)
	if err != nil {
		return result, fmt.Errorf("load queue items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var songJSON string
		if err := rows.Scan(&songJSON); err != nil {
			return result, fmt.Errorf("scan song: %w", err)
		}
		var song library.Song
		if err := json.Unmarshal([]byte(songJSON), &song); err != nil {
			continue
		}
		result.Songs = append(result.Songs, song)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("iterate songs: %w", err)
	}

	if result.CurrentIndex >= len(result.Songs) {
		result.CurrentIndex = len(result.Songs) - 1
	}
	if result.CurrentIndex < 0 && len(result.Songs) > 0 {
		result.CurrentIndex = 0
	}
	return result, nil
}

// Clear removes all persisted queue data.
func (s *PersistenceStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_items`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE queue_state SET current_index = -1, shuffle_enabled = 0, repeat_mode = 0, mix_id = '' WHERE id = 1`); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *PersistenceStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
