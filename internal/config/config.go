// Package config loads groupsync settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"groupsync/internal/fsutil"
)

const (
	envDir          = "GROUPSYNC_CONFIG_DIR"
	defaultDir      = "~/.groupsync"
	fileName        = "config.toml"
	defaultDBName   = "groupsync.db"
	defaultDebounce = time.Second
)

type Config struct {
	DBPath   string
	Debounce time.Duration
	LogLevel slog.Level
}

type fileConfig struct {
	DBPath   string `toml:"db_path,omitempty"`
	Debounce string `toml:"debounce,omitempty"`
	LogLevel string `toml:"log_level,omitempty"`
}

// Dir is $GROUPSYNC_CONFIG_DIR when set, otherwise ~/.groupsync.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(envDir)); v != "" {
		return expandPath(v)
	}
	return expandPath(defaultDir)
}

// Path is the config file inside Dir.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func Default() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		DBPath:   filepath.Join(dir, defaultDBName),
		Debounce: defaultDebounce,
		LogLevel: slog.LevelInfo,
	}, nil
}

// Load parses the config at path (or Path() when empty). A missing file yields
// the defaults; fields left out of the file keep their defaults.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(path) == "" {
		if path, err = Path(); err != nil {
			return Config{}, err
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(b, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v := strings.TrimSpace(raw.DBPath); v != "" {
		if cfg.DBPath, err = expandPath(v); err != nil {
			return Config{}, err
		}
	}
	if v := strings.TrimSpace(raw.Debounce); v != "" {
		if cfg.Debounce, err = ParseDebounce(v); err != nil {
			return Config{}, err
		}
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		if cfg.LogLevel, err = ParseLevel(v); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Save writes cfg to path atomically, creating the directory if needed.
func Save(path string, cfg Config) error {
	b, err := toml.Marshal(fileConfig{
		DBPath:   cfg.DBPath,
		Debounce: cfg.Debounce.String(),
		LogLevel: strings.ToLower(cfg.LogLevel.String()),
	})
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, b)
}

func ParseDebounce(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid debounce %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid debounce %q: must be positive", s)
	}
	return d, nil
}

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

func expandPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("path is empty")
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
