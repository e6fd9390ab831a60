// Package watch unshreds image files as they appear in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"

	"github.com/ironsheep/image-unshred/internal/imaging"
	"github.com/ironsheep/image-unshred/internal/logging"
	"github.com/ironsheep/image-unshred/internal/pipeline"
)

// OutputSuffix is appended to the base name of every file the watcher writes.
const OutputSuffix = ".unshredded.png"

// DefaultSettle is how long a file must stay quiet before it is processed.
const DefaultSettle = 500 * time.Millisecond

// Config describes what to watch and where results go.
type Config struct {
	InputDir  string
	OutputDir string
	Strips    int // <= 0 detects the strip count per file
	Settle    time.Duration

	// ProcessExisting unshreds files already in InputDir when Run starts.
	ProcessExisting bool
}

// Result reports one processed file.
type Result struct {
	Source string
	Output string
	RunID  string
	Err    error
}

// Watcher turns files dropped into a directory into reconstructions.
type Watcher struct {
	cfg    Config
	pipe   *pipeline.Pipeline
	log    *slog.Logger
	notify func(Result)

	mu     sync.Mutex
	timers map[string]*pending
	wg     sync.WaitGroup
}

type pending struct {
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithNotify registers fn to be called after each file is processed.
func WithNotify(fn func(Result)) Option {
	return func(w *Watcher) { w.notify = fn }
}

// New validates cfg, creates the output directory and returns a Watcher.
func New(cfg Config, p *pipeline.Pipeline, opts ...Option) (*Watcher, error) {
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		return nil, errors.New("input and output directories are required")
	}
	info, err := os.Stat(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input %s is not a directory", cfg.InputDir)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if p == nil {
		p = pipeline.New(nil)
	}

	w := &Watcher{
		cfg:    cfg,
		pipe:   p,
		log:    logging.Discard(),
		timers: make(map[string]*pending),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the input directory until ctx is done. Pending files are
// dropped on shutdown; files already being processed finish first.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.InputDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.InputDir, err)
	}
	w.log.Info("watching", "input", w.cfg.InputDir, "output", w.cfg.OutputDir, "settle", w.cfg.Settle)

	if w.cfg.ProcessExisting {
		entries, err := os.ReadDir(w.cfg.InputDir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", w.cfg.InputDir, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				w.schedule(ctx, filepath.Join(w.cfg.InputDir, e.Name()))
			}
		}
	}

	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if !IsImageFile(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.timers[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.cfg.Settle)
		return
	}

	w.wg.Add(1)
	p := &pending{}
	w.timers[path] = p
	p.timer = time.AfterFunc(w.cfg.Settle, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.timers[path] == p {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		res := w.Process(ctx, path)
		if w.notify != nil {
			w.notify(res)
		}
	})
}

// drain stops pending timers and waits for running ones.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, p := range w.timers {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// Process unshreds a single file into the output directory.
func (w *Watcher) Process(ctx context.Context, path string) Result {
	res := Result{Source: path, Output: filepath.Join(w.cfg.OutputDir, OutputName(path))}

	if info, err := os.Stat(path); err == nil {
		w.log.Debug("processing", "path", path, "size", humanize.Bytes(uint64(info.Size())))
	}

	frame, err := imaging.LoadFile(path)
	if err != nil {
		res.Err = err
		w.log.Warn("skipping file", "path", path, "error", err)
		return res
	}

	out, err := w.pipe.Unshred(ctx, pipeline.Request{
		Source: path,
		Output: res.Output,
		Frame:  frame,
		Strips: w.cfg.Strips,
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.RunID = out.RunID

	if err := imaging.Save(res.Output, out.Frame.Image()); err != nil {
		res.Err = err
		w.log.Error("failed to write result", "path", res.Output, "error", err)
	}
	return res
}

// OutputName maps an input file name to the name of its reconstruction.
func OutputName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + OutputSuffix
}

// IsImageFile reports whether path has a decodable image extension and is not
// itself a reconstruction.
func IsImageFile(path string) bool {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, OutputSuffix) {
		return false
	}
	switch filepath.Ext(lower) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}
