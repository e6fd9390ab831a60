package unshred

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Result is a reconstructed image together with how it was inferred.
type Result struct {
	// Pixels is the reconstructed buffer, same dimensions as the input.
	Pixels PixelBuffer

	// Order maps output strip position to input strip index.
	Order StripOrder

	// SeamStrip is the strip placed last because its right junction was the
	// weakest. -1 when no chain was built (one or two strips).
	SeamStrip int

	// SeamScore is the score of that junction.
	SeamScore float64

	// Junctions are the adjacencies formed while growing the chain.
	Junctions []Junction
}

// Unshredder runs the reconstruction pipeline. The zero value is not usable;
// create one with New. An Unshredder holds no per-call state and may be used
// from multiple goroutines.
type Unshredder struct {
	workers int
	logger  *slog.Logger
}

// Option configures an Unshredder.
type Option func(*Unshredder)

// WithWorkers bounds the goroutines used for the distance matrix.
// Values <= 0 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(u *Unshredder) { u.workers = n }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(u *Unshredder) {
		if l != nil {
			u.logger = l
		}
	}
}

// New returns an Unshredder with the given options applied.
func New(opts ...Option) *Unshredder {
	u := &Unshredder{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Reconstruct infers the original strip order of pixels and returns the
// reassembled buffer. It is shorthand for New().Reconstruct.
func Reconstruct(pixels PixelBuffer, width, height, strips int) (PixelBuffer, error) {
	res, err := New().Reconstruct(pixels, width, height, strips)
	if err != nil {
		return nil, err
	}
	return res.Pixels, nil
}

// Validate reports ErrInvalidArgument for input the pipeline cannot process.
func Validate(pixels PixelBuffer, width, height, strips int) error {
	switch {
	case strips <= 0:
		return fmt.Errorf("strip count %d must be positive: %w", strips, ErrInvalidArgument)
	case width <= 0 || height <= 0:
		return fmt.Errorf("dimensions %dx%d must be positive: %w", width, height, ErrInvalidArgument)
	case width%strips != 0:
		return fmt.Errorf("width %d is not divisible by %d strips: %w", width, strips, ErrInvalidArgument)
	case len(pixels) != width*height:
		return fmt.Errorf("buffer holds %d pixels, want %dx%d: %w",
			len(pixels), width, height, ErrInvalidArgument)
	}
	return nil
}

// Reconstruct runs profiling, scoring, matching, chain growth and compositing.
//
// One strip returns a copy of the input. Two strips carry no usable matching
// signal, so the halves of the buffer are exchanged directly. This swaps the
// first and second half of the flat buffer (top and bottom rows on an even
// height), not the left and right column blocks. Failures wrap
// ErrInvalidArgument or ErrIncompleteReconstruction.
func (u *Unshredder) Reconstruct(pixels PixelBuffer, width, height, strips int) (*Result, error) {
	if err := Validate(pixels, width, height, strips); err != nil {
		return nil, err
	}

	switch strips {
	case 1:
		out := make(PixelBuffer, len(pixels))
		copy(out, pixels)
		return &Result{Pixels: out, Order: StripOrder{0}, SeamStrip: -1}, nil
	case 2:
		return &Result{Pixels: swapHalves(pixels), Order: StripOrder{1, 0}, SeamStrip: -1}, nil
	}

	start := time.Now()
	stripWidth := width / strips

	profiles := BuildProfiles(pixels, width, height, stripWidth)
	m, err := NewDistanceMatrix(profiles, u.workers)
	if err != nil {
		return nil, err
	}
	mt := NewMatchTable(m)

	chain, err := BuildChain(mt, m)
	if err != nil {
		u.logger.Debug("chain incomplete",
			"strips", strips,
			"placed", len(chain.Order),
			"error", err)
		return nil, err
	}

	out, err := Composite(pixels, width, height, stripWidth, chain.Order)
	if err != nil {
		return nil, err
	}

	u.logger.Debug("reconstructed",
		"strips", strips,
		"strip_width", stripWidth,
		"seam_strip", chain.SeamStrip,
		"seam_score", chain.SeamScore,
		"duration", time.Since(start))

	return &Result{
		Pixels:    out,
		Order:     chain.Order,
		SeamStrip: chain.SeamStrip,
		SeamScore: chain.SeamScore,
		Junctions: chain.Junctions,
	}, nil
}

// Analyze runs the scoring stages only and returns the matrix and match table,
// for inspecting why an image did or did not reconstruct.
func (u *Unshredder) Analyze(pixels PixelBuffer, width, height, strips int) (*DistanceMatrix, *MatchTable, error) {
	if err := Validate(pixels, width, height, strips); err != nil {
		return nil, nil, err
	}
	profiles := BuildProfiles(pixels, width, height, width/strips)
	m, err := NewDistanceMatrix(profiles, u.workers)
	if err != nil {
		return nil, nil, err
	}
	return m, NewMatchTable(m), nil
}

// NeighborAccuracy returns the fraction of truth's cyclic adjacencies
// (truth[k] followed by truth[k+1], wrapping) that also appear as cyclic
// adjacencies in order. Identical orders up to rotation score 1.
func NeighborAccuracy(order, truth StripOrder) float64 {
	n := len(truth)
	if n == 0 || len(order) != n {
		return 0
	}
	next := make(map[int]int, n)
	for k, s := range order {
		next[s] = order[(k+1)%n]
	}
	hits := 0
	for k, s := range truth {
		if nx, ok := next[s]; ok && nx == truth[(k+1)%n] {
			hits++
		}
	}
	return float64(hits) / float64(n)
}
