package unshred

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// EdgeDistance sums the per-row Euclidean RGB distance between two edges.
//
// Identical edges score exactly 0. The score grows strictly with the color
// difference of any single row since no per-row rounding is applied. Edges
// must have the same length.
func EdgeDistance(a, b []RGB) float64 {
	var d float64
	for r := range a {
		dr := float64(a[r].R) - float64(b[r].R)
		dg := float64(a[r].G) - float64(b[r].G)
		db := float64(a[r].B) - float64(b[r].B)
		d += math.Sqrt(dr*dr + dg*dg + db*db)
	}
	return d
}

// DistanceMatrix stores pairwise edge dissimilarity between strips.
//
// Forward(i, j) scores strip j placed directly after strip i (right edge of i
// against left edge of j). Backward(i, j) scores strip j placed directly
// before strip i (left edge of i against right edge of j).
type DistanceMatrix struct {
	n        int
	forward  []float64
	backward []float64
}

// NewDistanceMatrix scores every ordered pair of strips.
//
// Rows are computed concurrently by at most workers goroutines; workers <= 0
// uses GOMAXPROCS. Each cell has a single writer so the result does not depend
// on scheduling.
func NewDistanceMatrix(profiles []EdgeProfile, workers int) (*DistanceMatrix, error) {
	n := len(profiles)
	if n == 0 {
		return nil, fmt.Errorf("no edge profiles: %w", ErrInvalidArgument)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	m := &DistanceMatrix{
		n:        n,
		forward:  make([]float64, n*n),
		backward: make([]float64, n*n),
	}

	height := len(profiles[0].Left)

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			pi := profiles[i]
			if len(pi.Left) != height || len(pi.Right) != height {
				return fmt.Errorf("strip %d edge length %d/%d, want %d: %w",
					i, len(pi.Left), len(pi.Right), height, ErrInvalidArgument)
			}
			for j := 0; j < n; j++ {
				pj := profiles[j]
				if len(pj.Left) != height || len(pj.Right) != height {
					return fmt.Errorf("strip %d edge length %d/%d, want %d: %w",
						j, len(pj.Left), len(pj.Right), height, ErrInvalidArgument)
				}
				m.forward[i*n+j] = EdgeDistance(pi.Right, pj.Left)
				m.backward[i*n+j] = EdgeDistance(pi.Left, pj.Right)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m, nil
}

// Len returns the number of strips.
func (m *DistanceMatrix) Len() int { return m.n }

// Forward returns the score for strip j following strip i.
func (m *DistanceMatrix) Forward(i, j int) float64 { return m.forward[i*m.n+j] }

// Backward returns the score for strip j preceding strip i.
func (m *DistanceMatrix) Backward(i, j int) float64 { return m.backward[i*m.n+j] }

// OrderCost sums Forward scores over consecutive strips of order.
func OrderCost(m *DistanceMatrix, order StripOrder) float64 {
	var total float64
	for k := 1; k < len(order); k++ {
		total += m.Forward(order[k-1], order[k])
	}
	return total
}
