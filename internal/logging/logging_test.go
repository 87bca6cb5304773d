package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC))
	if got != "mixtape-20240307.log" {
		t.Errorf("FileName = %q", got)
	}
}

func TestSetupWritesToStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	logger, f, err := Setup(dir, slog.LevelInfo)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("generated mixes", "count", 3)
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName(time.Now())))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "generated mixes") || !strings.Contains(out, "count=3") {
		t.Errorf("log missing entry: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug entry should be filtered at info level")
	}
}
