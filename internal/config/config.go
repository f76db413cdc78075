// Package config loads the qrfield configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration (version 1).
type Config struct {
	Version  int      `yaml:"version"`
	DB       string   `yaml:"db"`
	TempDir  string   `yaml:"temp_dir"`
	EdocDir  string   `yaml:"edoc_dir"`
	Listen   string   `yaml:"listen"`
	Renderer Renderer `yaml:"renderer"`
	Log      Log      `yaml:"log"`
}

// Renderer selects the QR backend.
type Renderer struct {
	Backend     string   `yaml:"backend"`
	SearchPaths []string `yaml:"search_paths"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Dir returns the default base directory, ~/.qrfield.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".qrfield")
}

// Default returns the configuration used when no file exists.
func Default() Config {
	base := Dir()
	return Config{
		Version:  1,
		DB:       filepath.Join(base, "qrfield.db"),
		TempDir:  os.TempDir(),
		EdocDir:  filepath.Join(base, "edocs"),
		Listen:   "127.0.0.1:8087",
		Renderer: Renderer{Backend: "builtin"},
		Log:      Log{Level: "info", Format: "text"},
	}
}

// Load reads the config at path, or $QRFIELD_CONFIG, or ~/.qrfield/config.yaml.
// A missing default file is not an error. $QRFIELD_DB overrides the db path.
func Load(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv("QRFIELD_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = filepath.Join(Dir(), "config.yaml")
	}

	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		if cfg.Version != 1 {
			return cfg, errors.New("config: unsupported version")
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if env := os.Getenv("QRFIELD_DB"); env != "" {
		cfg.DB = env
	}
	return cfg, nil
}

// Logger builds the slog logger described by the config.
func (c Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
