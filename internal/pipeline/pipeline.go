// Package pipeline ties frame decoding, strip-width detection, reconstruction
// and run history together for the command surfaces.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/ironsheep/image-unshred/internal/detection"
	"github.com/ironsheep/image-unshred/internal/imaging"
	"github.com/ironsheep/image-unshred/internal/logging"
	"github.com/ironsheep/image-unshred/internal/storage"
	"github.com/ironsheep/image-unshred/internal/unshred"
)

// Recorder persists run history. *storage.Store satisfies it.
type Recorder interface {
	RecordRun(ctx context.Context, r *storage.Run) (string, error)
}

// Pipeline runs reconstructions and records them.
type Pipeline struct {
	unshredder *unshred.Unshredder
	store      Recorder
	log        *slog.Logger
	minWidth   int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore records every run in r.
func WithStore(r Recorder) Option {
	return func(p *Pipeline) { p.store = r }
}

// WithLogger sets the logger for run start/complete/error lines.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMinStripWidth bounds strip-width detection.
func WithMinStripWidth(n int) Option {
	return func(p *Pipeline) { p.minWidth = n }
}

// New returns a Pipeline using u for reconstruction. A nil u means unshred.New().
func New(u *unshred.Unshredder, opts ...Option) *Pipeline {
	if u == nil {
		u = unshred.New()
	}
	p := &Pipeline{
		unshredder: u,
		log:        logging.Discard(),
		minWidth:   2,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request describes one reconstruction.
type Request struct {
	Source string // recorded as the run's source
	Output string // recorded as the run's output, may be empty
	Frame  *imaging.Frame
	Strips int // <= 0 detects the strip count from the frame
}

// Outcome is a finished reconstruction.
type Outcome struct {
	RunID    string
	Strips   int
	Detected *detection.StripWidthResult // nil when the strip count was given
	Result   *unshred.Result
	Frame    *imaging.Frame
	Duration time.Duration
}

// Unshred reconstructs req.Frame. The run is recorded whether or not it
// succeeds; a failure to record is logged, not returned.
func (p *Pipeline) Unshred(ctx context.Context, req Request) (*Outcome, error) {
	if req.Frame == nil {
		return nil, fmt.Errorf("no frame for %q: %w", req.Source, unshred.ErrInvalidArgument)
	}

	out := &Outcome{Strips: req.Strips}
	if out.Strips <= 0 {
		det, err := detection.DetectStripWidth(req.Frame, p.minWidth)
		if err != nil {
			return nil, err
		}
		out.Detected = det
		out.Strips = det.Strips
		p.log.Debug("detected strip width",
			"source", req.Source,
			"strips", det.Strips,
			"strip_width", det.StripWidth,
			"confidence", det.Confidence)
	}

	logging.LogRunStart(p.log, req.Source, out.Strips)
	start := time.Now()
	res, err := p.unshredder.Reconstruct(req.Frame.Pixels, req.Frame.Width, req.Frame.Height, out.Strips)
	if err == nil {
		out.Result = res
		out.Frame, err = imaging.NewFrame(res.Pixels, req.Frame.Width, req.Frame.Height)
	}
	out.Duration = time.Since(start)

	run := &storage.Run{
		Source:    req.Source,
		Output:    req.Output,
		Strips:    out.Strips,
		Width:     req.Frame.Width,
		Height:    req.Frame.Height,
		SeamStrip: -1,
		Status:    storage.StatusOK,
		Duration:  out.Duration,
	}
	if res != nil {
		run.Order = res.Order
		run.SeamStrip = res.SeamStrip
		run.SeamScore = res.SeamScore
	}
	if err != nil {
		run.Status = storage.StatusFailed
		run.Error = err.Error()
	}
	out.RunID = p.record(ctx, run)

	if err != nil {
		logging.LogRunError(p.log, out.RunID, req.Source, out.Duration, err)
		return nil, err
	}
	logging.LogRunComplete(p.log, out.RunID, req.Source, out.Duration, res.SeamStrip)
	return out, nil
}

// ShredRequest describes one shred.
type ShredRequest struct {
	Source string
	Output string
	Image  image.Image
	Strips int
	Seed   int64
}

// ShredOutcome is a shredded image and the order its strips were placed in.
type ShredOutcome struct {
	RunID string
	Image *image.NRGBA
	Order unshred.StripOrder
}

// Shred cuts req.Image into strips, shuffles them and records the run.
func (p *Pipeline) Shred(ctx context.Context, req ShredRequest) (*ShredOutcome, error) {
	if req.Image == nil {
		return nil, fmt.Errorf("no image for %q: %w", req.Source, unshred.ErrInvalidArgument)
	}
	start := time.Now()
	img, order, err := imaging.Shred(req.Image, req.Strips, req.Seed)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	id := p.record(ctx, &storage.Run{
		Source:    req.Source,
		Output:    req.Output,
		Strips:    req.Strips,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Order:     order,
		SeamStrip: -1,
		Status:    storage.StatusShredded,
		Duration:  time.Since(start),
	})
	p.log.Info("shredded", "id", id, "source", req.Source, "strips", req.Strips, "seed", req.Seed)
	return &ShredOutcome{RunID: id, Image: img, Order: order}, nil
}

func (p *Pipeline) record(ctx context.Context, run *storage.Run) string {
	if p.store == nil {
		return ""
	}
	id, err := p.store.RecordRun(ctx, run)
	if err != nil {
		p.log.Warn("failed to record run", "source", run.Source, "error", err)
		return ""
	}
	return id
}
