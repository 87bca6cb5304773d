package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tunez/mixtape/internal/ui"
)

// EnvPath names the environment variable that overrides the config location.
const EnvPath = "MIXTAPE_CONFIG"

// Config holds mixtape runtime configuration loaded from TOML.
type Config struct {
	ConfigVersion int           `toml:"config_version"`
	Library       LibraryConfig `toml:"library"`
	History       HistoryConfig `toml:"history"`
	Mixes         MixesConfig   `toml:"mixes"`
	Queue         QueueConfig   `toml:"queue"`
	UI            UIConfig      `toml:"ui"`
}

type LibraryConfig struct {
	Roots       []string `toml:"roots"`
	IndexDB     string   `toml:"index_db"`
	ScanOnStart bool     `toml:"scan_on_start"`
}

// HistoryConfig controls the play history store and when a play counts.
type HistoryConfig struct {
	DB              string  `toml:"db"`
	RetentionDays   int     `toml:"retention_days"`
	MinPlaySeconds  int     `toml:"min_play_seconds"`
	MinPlayFraction float64 `toml:"min_play_fraction"`
}

type MixesConfig struct {
	PatternsFile    string `toml:"patterns_file"`
	EnableFavorites bool   `toml:"enable_favorites"`
	EnableMoods     bool   `toml:"enable_moods"`
}

// QueueConfig holds queue persistence settings.
type QueueConfig struct {
	Persist bool   `toml:"persist"`
	DB      string `toml:"db"`
}

type UIConfig struct {
	PageSize int    `toml:"page_size"`
	NoEmoji  bool   `toml:"no_emoji"`
	Theme    string `toml:"theme"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		ConfigVersion: 1,
		History: HistoryConfig{
			RetentionDays:   365,
			MinPlaySeconds:  240,
			MinPlayFraction: 0.5,
		},
		Mixes: MixesConfig{EnableFavorites: true, EnableMoods: true},
		Queue: QueueConfig{Persist: true},
		UI:    UIConfig{PageSize: 100, Theme: "rainbow"},
	}
}

// Load reads configuration from disk. If path is empty, MIXTAPE_CONFIG and
// then a default OS-specific location are used. A missing default file is
// not an error; the defaults are returned.
func Load(path string) (*Config, string, error) {
	cfgPath := path
	if cfgPath == "" {
		cfgPath = os.Getenv(EnvPath)
	}
	explicit := cfgPath != ""
	if cfgPath == "" {
		var err error
		cfgPath, err = defaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve config path: %w", err)
		}
	}

	cfg := Default()
	data, err := os.ReadFile(cfgPath)
	switch {
	case err == nil:
		// Keys absent from the file keep their defaults.
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, cfgPath, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, cfgPath, fmt.Errorf("read config: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, cfgPath, err
	}
	if err := Validate(cfg); err != nil {
		return nil, cfgPath, err
	}
	return &cfg, cfgPath, nil
}

// Dir returns the mixtape directory under the user config dir.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mixtape"), nil
}

// StateDir returns where databases and logs live by default.
func StateDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state"), nil
}

func defaultPath() (string, error) {
	base, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.toml"), nil
}

func applyDefaults(cfg *Config) error {
	if cfg.UI.PageSize <= 0 {
		cfg.UI.PageSize = 100
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "rainbow"
	}
	if cfg.History.MinPlaySeconds <= 0 {
		cfg.History.MinPlaySeconds = 240
	}
	for i, root := range cfg.Library.Roots {
		cfg.Library.Roots[i] = expandHome(root)
	}
	cfg.Mixes.PatternsFile = expandHome(cfg.Mixes.PatternsFile)

	if cfg.Library.IndexDB != "" && cfg.History.DB != "" && cfg.Queue.DB != "" {
		return nil
	}
	state, err := StateDir()
	if err != nil {
		return fmt.Errorf("resolve state dir: %w", err)
	}
	if cfg.Library.IndexDB == "" {
		cfg.Library.IndexDB = filepath.Join(state, "library.sqlite")
	}
	if cfg.History.DB == "" {
		cfg.History.DB = filepath.Join(state, "history.db")
	}
	if cfg.Queue.DB == "" {
		cfg.Queue.DB = filepath.Join(state, "queue.db")
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate performs semantic validation of a loaded config.
func Validate(cfg Config) error {
	if !ui.ValidTheme(cfg.UI.Theme) {
		return fmt.Errorf("ui.theme %q is not a known theme", cfg.UI.Theme)
	}
	if cfg.History.MinPlayFraction <= 0 || cfg.History.MinPlayFraction > 1 {
		return errors.New("history.min_play_fraction must be in (0, 1]")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must not be negative")
	}
	for _, root := range cfg.Library.Roots {
		if root == "" {
			return errors.New("library.roots contains empty path")
		}
		if _, err := os.Stat(root); err != nil {
			return fmt.Errorf("library root %s: %w", root, err)
		}
	}
	return nil
}
