package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists play counters and history in sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
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
		`CREATE TABLE IF NOT EXISTS play_counts (
			path TEXT PRIMARY KEY,
			count INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS play_history (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			played_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_path ON play_history(path, played_at);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate history schema: %w", err)
		}
	}
	return nil
}

// RecordPlay bumps the counter for path and appends a play at the given time.
func (s *Store) RecordPlay(ctx context.Context, path string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO play_counts(path, count) VALUES(?, 1)
		 ON CONFLICT(path) DO UPDATE SET count = count + 1`, path); err != nil {
		return fmt.Errorf("bump count %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO play_history(id, path, played_at) VALUES(?, ?, ?)`,
		uuid.NewString(), path, at.UnixMilli()); err != nil {
		return fmt.Errorf("append play %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SetCount overwrites the counter for path without touching its history.
// Used when importing counters from older libraries.
func (s *Store) SetCount(ctx context.Context, path string, count int) error {
	if count < 0 {
		return fmt.Errorf("%s: %w", path, ErrNegativeCount)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO play_counts(path, count) VALUES(?, ?)
		 ON CONFLICT(path) DO UPDATE SET count = excluded.count`, path, count)
	if err != nil {
		return fmt.Errorf("set count %s: %w", path, err)
	}
	return nil
}

// Snapshot loads every record. History entries are returned oldest first.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{}

	rows, err := s.db.QueryContext(ctx, `SELECT path, count FROM play_counts`)
	if err != nil {
		return nil, fmt.Errorf("load counts: %w", err)
	}
	for rows.Next() {
		var (
			path  string
			count int
		)
		if err := rows.Scan(&path, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan count: %w", err)
		}
		snap[path] = PlayRecord{Count: count}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT path, played_at FROM play_history ORDER BY path, played_at, id`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			path string
			ms   int64
		)
		if err := rows.Scan(&path, &ms); err != nil {
			return nil, fmt.Errorf("scan play: %w", err)
		}
		rec := snap[path]
		rec.History = append(rec.History, time.UnixMilli(ms))
		snap[path] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return snap, nil
}

// Prune deletes history entries older than before and returns how many were
// removed. Counters are left alone.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM play_history WHERE played_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
