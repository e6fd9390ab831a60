package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/image-unshred/internal/unshred"
)

// pixelDiffThreshold is the mean channel difference above which two pixels
// count as different.
const pixelDiffThreshold = 10

// CompareResult contains frame comparison information
type CompareResult struct {
	SimilarityScore  float64 `json:"similarity_score"`
	PixelsDifferent  int     `json:"pixels_different"`
	TotalPixels      int     `json:"total_pixels"`
	AverageColorDiff float64 `json:"average_color_diff"`
}

// CompareFrames compares two frames of equal size pixel by pixel. It is used
// to check a reconstruction against the original image.
func CompareFrames(a, b *Frame) (*CompareResult, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return nil, fmt.Errorf("frames differ in size: %dx%d vs %dx%d: %w",
			a.Width, a.Height, b.Width, b.Height, unshred.ErrInvalidArgument)
	}

	totalPixels := len(a.Pixels)
	pixelsDifferent := 0
	var totalColorDiff float64

	for i := range a.Pixels {
		ca := unshred.DecodeRGB(a.Pixels[i])
		cb := unshred.DecodeRGB(b.Pixels[i])

		diff := float64(absDiff(ca.R, cb.R)+absDiff(ca.G, cb.G)+absDiff(ca.B, cb.B)) / 3.0
		totalColorDiff += diff

		if diff > pixelDiffThreshold {
			pixelsDifferent++
		}
	}

	similarity := 1.0 - float64(pixelsDifferent)/float64(totalPixels)
	avgColorDiff := totalColorDiff / float64(totalPixels)

	return &CompareResult{
		SimilarityScore:  math.Round(similarity*1000) / 1000,
		PixelsDifferent:  pixelsDifferent,
		TotalPixels:      totalPixels,
		AverageColorDiff: math.Round(avgColorDiff*100) / 100,
	}, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
