package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tunez/mixtape/internal/app"
	"github.com/tunez/mixtape/internal/config"
	"github.com/tunez/mixtape/internal/history"
	"github.com/tunez/mixtape/internal/library"
	"github.com/tunez/mixtape/internal/logging"
	"github.com/tunez/mixtape/internal/mixes"
	"github.com/tunez/mixtape/internal/queue"
	"github.com/tunez/mixtape/internal/ui"
)

var version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Mixtape - personalized playlists from your listening history

Usage: mixtape [options]

Options:
  -config string
        Path to config file (default: $MIXTAPE_CONFIG or ~/.config/mixtape/config.toml)
  -version
        Print version and exit

Diagnostics:
  -doctor
        Check configuration, databases and patterns
  -scan
        Scan/rescan music library
  -import-features string
        Store BPM and energy from a JSON file of {path, bpm, energy} rows
  -import-counts string
        Overwrite play counters from a JSON object of path: count

Mixes:
  -mixes
        Print the generated mixes and exit
  -at string
        Generate as of this RFC3339 time instead of now (with -mixes or -played).
        History is not pruned on these runs
  -played string
        Record a play of the song at this path
  -listened duration
        How long the song was listened to (with -played, default: whole song)

Examples:
  mixtape                                          # Start interactive browser
  mixtape -doctor                                  # Check setup
  mixtape -scan                                    # Rescan music library
  mixtape -mixes -at 2024-12-24T20:00:00Z          # Preview Christmas Eve mixes
  mixtape -played ~/Music/song.mp3 -listened 3m    # Count a play
  mixtape -import-features analysis.json           # Load energy and BPM

`)
	}

	cfgPath := flag.String("config", "", "")
	showVersion := flag.Bool("version", false, "")
	doctor := flag.Bool("doctor", false, "")
	scan := flag.Bool("scan", false, "")
	featuresFile := flag.String("import-features", "", "")
	countsFile := flag.String("import-counts", "", "")
	printMixes := flag.Bool("mixes", false, "")
	atFlag := flag.String("at", "", "")
	played := flag.String("played", "", "")
	listened := flag.Duration("listened", 0, "")
	flag.Parse()

	if *showVersion {
		fmt.Println("mixtape", version)
		return
	}

	now := time.Now()
	clock := time.Now
	if *atFlag != "" {
		at, err := time.Parse(time.RFC3339, *atFlag)
		if err != nil {
			log.Fatalf("parse -at: %v", err)
		}
		now = at
		clock = func() time.Time { return at }
	}

	cfg, resolvedPath, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	stateDir, err := config.StateDir()
	if err != nil {
		log.Fatalf("resolve state dir: %v", err)
	}
	logger, logFile, err := logging.Setup(stateDir, slog.LevelDebug)
	if err != nil {
		log.Fatalf("setup logging: %v", err)
	}
	defer logFile.Close()
	logger.Info("starting mixtape", slog.String("config", resolvedPath), slog.String("version", version))

	if *doctor {
		runDoctor(os.Stdout, cfg, resolvedPath, logger)
		return
	}

	ctx := context.Background()
	lib, err := library.Open(ctx, cfg.Library.IndexDB)
	if err != nil {
		logger.Error("open library", slog.Any("err", err))
		log.Fatalf("open library: %v", err)
	}
	defer lib.Close()

	if *scan {
		runScan(ctx, lib, cfg.Library.Roots, logger)
		return
	}

	if *featuresFile != "" {
		n, err := importFile(*featuresFile, func(r io.Reader) (int, error) {
			return importFeatures(ctx, lib, r, logger)
		})
		if err != nil {
			logger.Error("import features", slog.Any("err", err))
			log.Fatalf("import features: %v (%d imported)", err, n)
		}
		fmt.Printf("Imported features for %d songs\n", n)
		return
	}

	plays, err := history.Open(ctx, cfg.History.DB)
	if err != nil {
		logger.Error("open history", slog.Any("err", err))
		log.Fatalf("open history: %v", err)
	}
	defer plays.Close()

	if *played != "" {
		if err := recordPlay(ctx, cfg, lib, plays, *played, *listened, now, logger); err != nil {
			log.Fatalf("record play: %v", err)
		}
		return
	}

	if *countsFile != "" {
		n, err := importFile(*countsFile, func(r io.Reader) (int, error) {
			return importCounts(ctx, plays, r, logger)
		})
		if err != nil {
			logger.Error("import counts", slog.Any("err", err))
			log.Fatalf("import counts: %v (%d imported)", err, n)
		}
		fmt.Printf("Imported play counts for %d songs\n", n)
		return
	}

	if _, err := pruneHistory(ctx, plays, cfg.History.RetentionDays, *atFlag != "", logger); err != nil {
		logger.Warn("prune history", slog.Any("err", err))
	}

	if cfg.Library.ScanOnStart && !*printMixes {
		if _, err := lib.Scan(ctx, cfg.Library.Roots, nil); err != nil {
			logger.Warn("scan on start", slog.Any("err", err))
		}
	}

	patterns := mixes.NewPatternCache(cfg.Mixes.PatternsFile, logger)
	gen := mixes.NewGenerator(lib, plays, mixes.NewMatcher(patterns), mixes.Options{
		DisableFavorites: !cfg.Mixes.EnableFavorites,
		DisableMoods:     !cfg.Mixes.EnableMoods,
		Clock:            clock,
		Logger:           logger,
	})

	if *printMixes {
		if err := runMixes(ctx, gen, os.Stdout); err != nil {
			logger.Error("generate mixes", slog.Any("err", err))
			log.Fatalf("generate mixes: %v", err)
		}
		return
	}

	opts := app.Options{
		NoEmoji:  cfg.UI.NoEmoji,
		PageSize: cfg.UI.PageSize,
		Logger:   logger,
	}
	if cfg.Queue.Persist {
		store, err := queue.NewPersistenceStore(cfg.Queue.DB)
		if err != nil {
			logger.Warn("queue persistence unavailable", slog.Any("err", err))
		} else {
			defer store.Close()
			if saved, err := store.Load(ctx); err != nil {
				logger.Warn("load queue", slog.Any("err", err))
			} else {
				opts.Queue = saved.Queue()
				opts.MixID = saved.MixID
			}
			opts.Saver = store
		}
	}

	// NO_COLOR env var support
	noColor := os.Getenv("NO_COLOR") != ""
	opts.Theme = ui.GetTheme(cfg.UI.Theme, noColor)

	if _, err := tea.NewProgram(app.New(gen, opts), tea.WithAltScreen()).Run(); err != nil {
		logger.Error("run tui", slog.Any("err", err))
		log.Fatalf("tui: %v", err)
	}
}
