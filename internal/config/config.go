// Package config loads user settings from a JSON file with environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultConfigPath = "~/.config/image-unshred/config.json"
	defaultHTTPAddr   = "127.0.0.1:8080"
	defaultSettleMS   = 500
)

// Config holds user-editable settings.
type Config struct {
	Unshred Unshred `json:"unshred"`
	Logging Logging `json:"logging"`
	Storage Storage `json:"storage"`
	Watch   Watch   `json:"watch"`
	HTTP    HTTP    `json:"http"`
}

// Unshred captures reconstruction defaults.
type Unshred struct {
	Strips     int  `json:"strips"`      // 0 means detect from the image
	Workers    int  `json:"workers"`     // distance matrix parallelism, 0 = serial
	AutoDetect bool `json:"auto_detect"` // detect strip width when strips is 0
	MinWidth   int  `json:"min_strip_width"`
}

// Logging controls logging verbosity and format.
type Logging struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// Storage configures the run history database.
type Storage struct {
	DatabasePath string `json:"database_path"`
	Enabled      bool   `json:"enabled"`
}

// Watch configures the directory watcher.
type Watch struct {
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`
	SettleMS  int    `json:"settle_ms"`
}

// HTTP configures the HTTP API listener.
type HTTP struct {
	Addr string `json:"addr"`
}

// Load reads configuration from path (or the default location when path is
// empty), falling back to defaults when the file does not exist, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("UNSHRED_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}

	expanded, err := expandUser(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("open config: %w", err)
	default:
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", expanded, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if cfg.Storage.DatabasePath, err = expandUser(cfg.Storage.DatabasePath); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Unshred: Unshred{
			AutoDetect: true,
			MinWidth:   2,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Storage: Storage{
			DatabasePath: "~/.local/share/image-unshred/runs.db",
			Enabled:      true,
		},
		Watch: Watch{
			SettleMS: defaultSettleMS,
		},
		HTTP: HTTP{
			Addr: defaultHTTPAddr,
		},
	}
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	if c.Unshred.Strips < 0 {
		return fmt.Errorf("unshred.strips must be >= 0, got %d", c.Unshred.Strips)
	}
	if c.Unshred.Workers < 0 {
		return fmt.Errorf("unshred.workers must be >= 0, got %d", c.Unshred.Workers)
	}
	if c.Unshred.MinWidth < 1 {
		return fmt.Errorf("unshred.min_strip_width must be >= 1, got %d", c.Unshred.MinWidth)
	}
	if c.Watch.SettleMS < 0 {
		return fmt.Errorf("watch.settle_ms must be >= 0, got %d", c.Watch.SettleMS)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http.addr must not be empty")
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("UNSHRED_LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup("UNSHRED_LOG_FORMAT"); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookup("UNSHRED_DB"); ok && v != "" {
		c.Storage.DatabasePath = v
	}
	if v, ok := lookup("UNSHRED_HTTP_ADDR"); ok && v != "" {
		c.HTTP.Addr = v
	}
	for name, dst := range map[string]*int{
		"UNSHRED_STRIPS":  &c.Unshred.Strips,
		"UNSHRED_WORKERS": &c.Unshred.Workers,
	} {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
