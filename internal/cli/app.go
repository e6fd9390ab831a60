// Package cli wires configuration, logging, storage and the reconstruction
// pipeline into the image-unshred command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ironsheep/image-unshred/internal/config"
	"github.com/ironsheep/image-unshred/internal/logging"
	"github.com/ironsheep/image-unshred/internal/pipeline"
	"github.com/ironsheep/image-unshred/internal/storage"
	"github.com/ironsheep/image-unshred/internal/unshred"
)

// BuildInfo is stamped into the binary by ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// App holds the state shared by every command. Configuration, logger, store
// and pipeline are built once the flags are parsed.
type App struct {
	info   BuildInfo
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// persistent flags
	configPath string
	logLevel   string
	logFormat  string
	dbPath     string
	noHistory  bool

	cfg        *config.Config
	log        *slog.Logger
	store      *storage.Store
	unshredder *unshred.Unshredder
	pipe       *pipeline.Pipeline
}

// Option configures an App.
type Option func(*App)

// WithIO replaces the process streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
	}
}

// NewApp returns an App for the given build.
func NewApp(info BuildInfo, opts ...Option) *App {
	a := &App{
		info:   info,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the command line args and releases resources afterwards.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd := a.Command()
	cmd.SetArgs(args)
	defer a.Close()
	return cmd.ExecuteContext(ctx)
}

// Close releases the run history database.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// setup loads configuration and builds the logger, store and pipeline.
// Flags explicitly set on the command line win over the config file.
func (a *App) setup(changed func(string) bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if changed("db") {
		cfg.Storage.DatabasePath = a.dbPath
		cfg.Storage.Enabled = true
	}
	if a.noHistory {
		cfg.Storage.Enabled = false
	}
	a.cfg = cfg

	// stdout carries MCP traffic and command output, so logs go to stderr
	a.log = logging.New(cfg.Logging.Level, cfg.Logging.Format, a.stderr)

	if cfg.Storage.Enabled && cfg.Storage.DatabasePath != "" {
		if err := a.openStore(cfg.Storage.DatabasePath); err != nil {
			return err
		}
	}

	a.unshredder = a.newUnshredder(cfg.Unshred.Workers)
	a.pipe = a.newPipeline(a.unshredder)
	return nil
}

func (a *App) openStore(path string) error {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	store, err := storage.New(path)
	if err != nil {
		return err
	}
	a.store = store
	a.log.Debug("run history enabled", "path", path)
	return nil
}

func (a *App) newUnshredder(workers int) *unshred.Unshredder {
	return unshred.New(unshred.WithWorkers(workers), unshred.WithLogger(a.log))
}

func (a *App) newPipeline(u *unshred.Unshredder) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithLogger(a.log),
		pipeline.WithMinStripWidth(a.cfg.Unshred.MinWidth),
	}
	if a.store != nil {
		opts = append(opts, pipeline.WithStore(a.store))
	}
	return pipeline.New(u, opts...)
}

// stripsOrDefault resolves a --strips flag against the configured default.
// A result of 0 means detect, which auto_detect=false forbids.
func (a *App) stripsOrDefault(flag int, changed bool) (int, error) {
	strips := a.cfg.Unshred.Strips
	if changed {
		strips = flag
	}
	if strips < 0 {
		return 0, fmt.Errorf("--strips must be >= 0, got %d: %w", strips, unshred.ErrInvalidArgument)
	}
	if strips == 0 && !a.cfg.Unshred.AutoDetect {
		return 0, fmt.Errorf("strip count required when auto_detect is off: %w", unshred.ErrInvalidArgument)
	}
	return strips, nil
}
