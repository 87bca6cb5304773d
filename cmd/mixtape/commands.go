package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/tunez/mixtape/internal/config"
	"github.com/tunez/mixtape/internal/history"
	"github.com/tunez/mixtape/internal/library"
	"github.com/tunez/mixtape/internal/mixes"
	"github.com/tunez/mixtape/internal/ui"
)

type generator interface {
	Generate(ctx context.Context) (*mixes.Playlists, error)
}

// runMixes prints every generated mix with its songs.
func runMixes(ctx context.Context, gen generator, w io.Writer) error {
	lists, err := gen.Generate(ctx)
	if err != nil {
		return err
	}
	if lists.Len() == 0 {
		fmt.Fprintln(w, "No mixes. Play some music or add patterns.")
		return nil
	}
	for _, pl := range lists.All() {
		fmt.Fprintf(w, "%s [%s] (%d songs)\n", pl.Name, pl.ID, len(pl.Songs))
		for i, s := range pl.Songs {
			fmt.Fprintf(w, "  %2d. %s\n", i+1, ui.SongLine(s))
		}
	}
	return nil
}

// recordPlay counts a listen of path through a history.Tracker so the
// configured thresholds apply. A zero listened means the whole song.
func recordPlay(ctx context.Context, cfg *config.Config, lib *library.Store, rec history.Recorder, path string, listened time.Duration, at time.Time, logger *slog.Logger) error {
	var duration time.Duration
	song, err := lib.Get(ctx, path)
	switch {
	case err == nil:
		if song.DurationSec != nil {
			duration = time.Duration(*song.DurationSec) * time.Second
		}
	case library.IsNotFound(err):
		logger.Warn("recording play for unindexed song", slog.String("path", path))
	default:
		return err
	}

	minPlay := time.Duration(cfg.History.MinPlaySeconds) * time.Second
	tracker := history.NewTracker(minPlay, cfg.History.MinPlayFraction)
	tracker.Start(path, duration, at)
	if listened == 0 {
		listened = max(duration, minPlay)
	}
	tracker.UpdatePosition(listened, false)

	counted, err := tracker.Finish(ctx, rec)
	if err != nil {
		return err
	}
	if !counted {
		fmt.Printf("Not counted: %s listened, below the play threshold\n", listened)
		return nil
	}
	logger.Info("recorded play", slog.String("path", path), slog.Time("at", at))
	fmt.Printf("Recorded play of %s\n", path)
	return nil
}

func runDoctor(w io.Writer, cfg *config.Config, cfgPath string, logger *slog.Logger) {
	ctx := context.Background()
	fmt.Fprintln(w, "Mixtape doctor")
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "Config file: not found, using defaults (%s)\n", cfgPath)
	} else {
		fmt.Fprintf(w, "Config file: OK (%s)\n", cfgPath)
	}

	if len(cfg.Library.Roots) == 0 {
		fmt.Fprintln(w, "Library roots: NONE (set library.roots to scan music)")
	}
	for _, root := range cfg.Library.Roots {
		fmt.Fprintf(w, "Library root: OK (%s)\n", root)
	}

	lib, err := library.Open(ctx, cfg.Library.IndexDB)
	if err != nil {
		fmt.Fprintf(w, "Library index: ERROR - %v\n", err)
	} else {
		if ok, msg := lib.Health(ctx); !ok {
			fmt.Fprintf(w, "Library index: ERROR - %s\n", msg)
		} else if n, err := lib.Count(ctx); err != nil {
			fmt.Fprintf(w, "Library index: ERROR - %v\n", err)
		} else {
			fmt.Fprintf(w, "Library index: OK (%d songs)\n", n)
		}
		lib.Close()
	}

	plays, err := history.Open(ctx, cfg.History.DB)
	if err != nil {
		fmt.Fprintf(w, "Play history: ERROR - %v\n", err)
	} else {
		snap, err := plays.Snapshot(ctx)
		if err != nil {
			fmt.Fprintf(w, "Play history: ERROR - %v\n", err)
		} else {
			fmt.Fprintf(w, "Play history: OK (%d songs played)\n", len(snap))
		}
		plays.Close()
	}

	patterns := mixes.NewPatternCache(cfg.Mixes.PatternsFile, logger)
	patterns.Load()
	if err := patterns.Err(); err != nil {
		fmt.Fprintf(w, "Patterns: ERROR - %v\n", err)
	} else {
		fmt.Fprintf(w, "Patterns: OK (%d loaded)\n", len(patterns.Patterns()))
	}

	logger.Info("doctor complete")
}

type pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// pruneHistory drops plays older than the retention window, measured from
// the wall clock. Nothing is pruned for a preview (-at) run or when
// retention is disabled.
func pruneHistory(ctx context.Context, plays pruner, retentionDays int, preview bool, logger *slog.Logger) (int64, error) {
	if preview || retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	n, err := plays.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("pruned play history", slog.Int64("rows", n), slog.Time("before", cutoff))
	}
	return n, nil
}

// featureRow is one entry of a -import-features file.
type featureRow struct {
	Path   string   `json:"path"`
	BPM    *float64 `json:"bpm"`
	Energy *float64 `json:"energy"`
}

type featureSetter interface {
	SetFeatures(ctx context.Context, path string, f library.Features) error
}

// importFeatures reads a JSON array of {path, bpm, energy} rows, as written
// by an external analysis pipeline, and stores them. Missing values keep
// what is already stored.
func importFeatures(ctx context.Context, lib featureSetter, r io.Reader, logger *slog.Logger) (int, error) {
	var rows []featureRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return 0, fmt.Errorf("decode features: %w", err)
	}
	n := 0
	for i, row := range rows {
		if row.Path == "" {
			return n, fmt.Errorf("feature row %d: missing path", i)
		}
		if err := lib.SetFeatures(ctx, row.Path, library.Features{BPM: row.BPM, Energy: row.Energy}); err != nil {
			return n, err
		}
		n++
	}
	logger.Info("imported features", slog.Int("songs", n))
	return n, nil
}

type countSetter interface {
	SetCount(ctx context.Context, path string, count int) error
}

// importCounts reads a JSON object mapping song paths to lifetime play
// counts and overwrites the stored counters. Play history is untouched.
func importCounts(ctx context.Context, plays countSetter, r io.Reader, logger *slog.Logger) (int, error) {
	var counts map[string]int
	if err := json.NewDecoder(r).Decode(&counts); err != nil {
		return 0, fmt.Errorf("decode counts: %w", err)
	}
	paths := make([]string, 0, len(counts))
	for path := range counts {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	n := 0
	for _, path := range paths {
		if err := plays.SetCount(ctx, path, counts[path]); err != nil {
			return n, err
		}
		n++
	}
	logger.Info("imported play counts", slog.Int("songs", n))
	return n, nil
}

// importFile opens path and hands it to load.
func importFile(path string, load func(io.Reader) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return load(f)
}

func runScan(ctx context.Context, lib *library.Store, roots []string, logger *slog.Logger) {
	if len(roots) == 0 {
		fmt.Println("No library roots configured (library.roots)")
		return
	}
	fmt.Println("Scanning library...")
	start := time.Now()
	n, err := lib.Scan(ctx, roots, func(count int, path string) {
		fmt.Printf("\r\033[K  Scanned %d songs: %s", count, ui.Truncate(path, 60))
	})
	fmt.Printf("\r\033[K")
	if err != nil {
		fmt.Printf("Scan error: %v\n", err)
		logger.Error("scan", slog.Any("err", err))
		return
	}
	fmt.Printf("Scan complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  %d songs indexed\n", n)
	logger.Info("scan complete", slog.Int("songs", n), slog.Duration("duration", time.Since(start)))
}
