package mixes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tunez/mixtape/internal/history"
	"github.com/tunez/mixtape/internal/library"
	"golang.org/x/sync/errgroup"
)

// CatalogSource supplies library snapshots.
type CatalogSource interface {
	Catalog(ctx context.Context) (*library.Catalog, error)
}

// HistorySource supplies play-history snapshots.
type HistorySource interface {
	Snapshot(ctx context.Context) (history.Snapshot, error)
}

// Options configures a Generator.
type Options struct {
	// DisableFavorites and DisableMoods switch off one of the engines.
	DisableFavorites bool
	DisableMoods     bool
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *slog.Logger
}

// Generator reads fresh snapshots from the stores and runs both engines.
type Generator struct {
	catalog CatalogSource
	plays   HistorySource
	matcher *Matcher
	opts    Options
	logger  *slog.Logger
}

// NewGenerator wires the engines to their data sources.
func NewGenerator(catalog CatalogSource, plays HistorySource, matcher *Matcher, opts Options) *Generator {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{catalog: catalog, plays: plays, matcher: matcher, opts: opts, logger: logger}
}

// Generate builds the playlists for the generator's clock.
func (g *Generator) Generate(ctx context.Context) (*Playlists, error) {
	return g.GenerateAt(ctx, g.opts.Clock())
}

// GenerateAt builds favorites followed by situational playlists for now.
func (g *Generator) GenerateAt(ctx context.Context, now time.Time) (*Playlists, error) {
	favorites := !g.opts.DisableFavorites && g.plays != nil
	moods := !g.opts.DisableMoods && g.matcher != nil

	var (
		catalog *library.Catalog
		plays   history.Snapshot
	)
	loads, loadCtx := errgroup.WithContext(ctx)
	loads.Go(func() error {
		c, err := g.catalog.Catalog(loadCtx)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		catalog = c
		return nil
	})
	if favorites {
		loads.Go(func() error {
			s, err := g.plays.Snapshot(loadCtx)
			if err != nil {
				return fmt.Errorf("load play history: %w", err)
			}
			plays = s
			return nil
		})
	}
	if err := loads.Wait(); err != nil {
		return nil, err
	}

	// the engines share read-only snapshots
	var fav, sit *Playlists
	var engines errgroup.Group
	if favorites {
		engines.Go(func() error {
			fav = Favorites(plays, catalog, now)
			return nil
		})
	}
	if moods {
		engines.Go(func() error {
			sit = g.matcher.Playlists(catalog, now)
			return nil
		})
	}
	_ = engines.Wait()

	out := fav.Merge(sit)
	g.logger.Debug("mixes generated",
		slog.Time("now", now),
		slog.Int("songs", catalog.Len()),
		slog.Int("history", len(plays)),
		slog.Int("favorites", fav.Len()),
		slog.Int("situations", sit.Len()))
	return out, nil
}
