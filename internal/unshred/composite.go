package unshred

import "fmt"

// Composite lays the strips of pixels out in the given order.
//
// Position j of the output receives source strip order[j]. order must be a
// permutation of [0, width/stripWidth); anything else is rejected with
// ErrInvalidArgument. The input buffer is not modified.
func Composite(pixels PixelBuffer, width, height, stripWidth int, order StripOrder) (PixelBuffer, error) {
	if stripWidth <= 0 || width%stripWidth != 0 {
		return nil, fmt.Errorf("strip width %d does not divide width %d: %w",
			stripWidth, width, ErrInvalidArgument)
	}
	if len(pixels) != width*height {
		return nil, fmt.Errorf("buffer holds %d pixels, want %dx%d: %w",
			len(pixels), width, height, ErrInvalidArgument)
	}
	if err := ValidateOrder(order, width/stripWidth); err != nil {
		return nil, err
	}

	out := make(PixelBuffer, len(pixels))
	for y := 0; y < height; y++ {
		row := y * width
		for j, src := range order {
			dst := row + j*stripWidth
			from := row + src*stripWidth
			copy(out[dst:dst+stripWidth], pixels[from:from+stripWidth])
		}
	}

	return out, nil
}

// ValidateOrder checks that order is a permutation of [0, n).
func ValidateOrder(order StripOrder, n int) error {
	if len(order) != n {
		return fmt.Errorf("order has %d strips, want %d: %w", len(order), n, ErrInvalidArgument)
	}
	seen := make([]bool, n)
	for _, s := range order {
		if s < 0 || s >= n {
			return fmt.Errorf("strip %d out of range [0,%d): %w", s, n, ErrInvalidArgument)
		}
		if seen[s] {
			return fmt.Errorf("strip %d repeated: %w", s, ErrInvalidArgument)
		}
		seen[s] = true
	}
	return nil
}

// swapHalves exchanges the first and second halves of the row-major buffer.
// For an odd length the longer second half moves to the front.
func swapHalves(pixels PixelBuffer) PixelBuffer {
	half := len(pixels) / 2
	out := make(PixelBuffer, 0, len(pixels))
	out = append(out, pixels[half:]...)
	out = append(out, pixels[:half]...)
	return out
}
