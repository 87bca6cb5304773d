package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FileName returns the daily log file name for t.
func FileName(t time.Time) string {
	return fmt.Sprintf("mixtape-%s.log", t.Format("20060102"))
}

// Setup creates a slog.Logger that appends to today's log file in dir.
// The caller is responsible for closing the file.
func Setup(dir string, level slog.Level) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	path := filepath.Join(dir, FileName(time.Now()))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("app", "mixtape"), f, nil
}
