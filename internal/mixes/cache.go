package mixes

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed default_patterns.json
var defaultPatterns []byte

// PatternCache loads mood patterns once and serves them for the lifetime of
// the process. Load failures leave the cache empty; they are logged and
// available through Err but never returned to callers of Patterns.
type PatternCache struct {
	mu       sync.Mutex
	path     string
	logger   *slog.Logger
	loaded   bool
	patterns []Pattern
	err      error
}

// NewPatternCache creates a cache reading path on first use. An empty path
// selects the built-in pattern set.
func NewPatternCache(path string, logger *slog.Logger) *PatternCache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PatternCache{path: path, logger: logger}
}

// StaticPatterns returns an already loaded cache holding patterns.
func StaticPatterns(patterns []Pattern) *PatternCache {
	c := NewPatternCache("", nil)
	c.patterns = patterns
	c.loaded = true
	return c
}

// Load reads the pattern source if it has not been read yet. Calling it
// again is a no-op.
func (c *PatternCache) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	c.loaded = true

	data, format, err := c.read()
	if err != nil {
		c.fail(err)
		return
	}
	patterns, problems, err := ParsePatterns(data, format)
	for _, p := range problems {
		c.logger.Warn("skipping mood pattern", slog.String("source", c.source()), slog.String("problem", p))
	}
	if err != nil {
		c.fail(err)
		return
	}
	c.patterns = patterns
	c.logger.Debug("mood patterns loaded", slog.String("source", c.source()), slog.Int("count", len(patterns)))
}

// Patterns loads the cache if needed and returns the patterns. The slice
// must not be modified.
func (c *PatternCache) Patterns() []Pattern {
	c.Load()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patterns
}

// Err returns the load error, if any.
func (c *PatternCache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *PatternCache) read() ([]byte, string, error) {
	if c.path == "" {
		return defaultPatterns, FormatJSON, nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, "", fmt.Errorf("read patterns: %w", err)
	}
	return data, formatFor(c.path), nil
}

func (c *PatternCache) fail(err error) {
	c.err = err
	c.patterns = nil
	c.logger.Warn("mood patterns unavailable", slog.String("source", c.source()), slog.Any("err", err))
}

func (c *PatternCache) source() string {
	if c.path == "" {
		return "builtin"
	}
	return c.path
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}
