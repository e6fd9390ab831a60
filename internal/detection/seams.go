package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/image-unshred/internal/imaging"
	"github.com/ironsheep/image-unshred/internal/unshred"
)

// MinContrast is the boundary-to-interior jump ratio a candidate strip width
// must reach before the image is considered shredded.
const MinContrast = 1.5

// minStripWidth is the narrowest strip a candidate may have. One-pixel strips
// leave no interior columns to compare against.
const minStripWidth = 2

// StripWidthCandidate scores one possible strip width.
type StripWidthCandidate struct {
	Strips     int     `json:"strips"`
	StripWidth int     `json:"strip_width"`
	Contrast   float64 `json:"contrast"`
}

// StripWidthResult contains the estimated cut of an image
type StripWidthResult struct {
	StripWidth int                   `json:"strip_width"`
	Strips     int                   `json:"strips"`
	Confidence float64               `json:"confidence"`
	Candidates []StripWidthCandidate `json:"candidates"`
}

// DetectStripWidth estimates the strip width of a shredded frame. Candidate
// widths narrower than minWidth are skipped; values below 2 are raised to 2.
func DetectStripWidth(frame *imaging.Frame, minWidth int) (*StripWidthResult, error) {
	if frame == nil || frame.Width <= 0 || frame.Height <= 0 || len(frame.Pixels) != frame.Width*frame.Height {
		return nil, fmt.Errorf("empty or malformed frame: %w", unshred.ErrInvalidArgument)
	}
	if minWidth < minStripWidth {
		minWidth = minStripWidth
	}

	jumps := ColumnJumps(frame)

	result := &StripWidthResult{
		StripWidth: frame.Width,
		Strips:     1,
		Candidates: []StripWidthCandidate{},
	}

	best := -1
	for _, n := range imaging.StripCounts(frame.Width, minWidth) {
		sw := frame.Width / n
		c := StripWidthCandidate{
			Strips:     n,
			StripWidth: sw,
			Contrast:   round2(contrast(jumps, sw)),
		}
		result.Candidates = append(result.Candidates, c)
		if best == -1 || c.Contrast > result.Candidates[best].Contrast {
			best = len(result.Candidates) - 1
		}
	}

	if best >= 0 && result.Candidates[best].Contrast >= MinContrast {
		c := result.Candidates[best]
		result.StripWidth = c.StripWidth
		result.Strips = c.Strips
		result.Confidence = round2(1 - 1/c.Contrast)
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Contrast > result.Candidates[j].Contrast
	})

	return result, nil
}

// ColumnJumps returns, for each column x, the mean per-row RGB distance
// between columns x-1 and x. Entry 0 is always 0.
func ColumnJumps(frame *imaging.Frame) []float64 {
	w, h := frame.Width, frame.Height
	jumps := make([]float64, w)

	for y := 0; y < h; y++ {
		row := frame.Pixels[y*w : (y+1)*w]
		prev := unshred.DecodeRGB(row[0])
		for x := 1; x < w; x++ {
			cur := unshred.DecodeRGB(row[x])
			dr := float64(cur.R) - float64(prev.R)
			dg := float64(cur.G) - float64(prev.G)
			db := float64(cur.B) - float64(prev.B)
			jumps[x] += math.Sqrt(dr*dr + dg*dg + db*db)
			prev = cur
		}
	}

	for x := range jumps {
		jumps[x] /= float64(h)
	}
	return jumps
}

// contrast compares the mean jump on multiples of sw against the mean jump
// on every other column.
func contrast(jumps []float64, sw int) float64 {
	var on, off float64
	var nOn, nOff int
	for x := 1; x < len(jumps); x++ {
		if x%sw == 0 {
			on += jumps[x]
			nOn++
		} else {
			off += jumps[x]
			nOff++
		}
	}
	if nOn == 0 || nOff == 0 {
		return 0
	}
	return (on / float64(nOn)) / (off/float64(nOff) + 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
