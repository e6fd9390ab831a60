package unshred

// PixelBuffer is a row-major grid of packed 24-bit RGB values (0xRRGGBB).
// The upper byte of each entry is ignored.
type PixelBuffer []uint32

// StripOrder lists strip indices in inferred left-to-right order.
type StripOrder []int

// RGB is one decoded pixel.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// DecodeRGB unpacks a 0xRRGGBB value.
func DecodeRGB(p uint32) RGB {
	return RGB{
		R: uint8((p >> 16) & 0xFF),
		G: uint8((p >> 8) & 0xFF),
		B: uint8(p & 0xFF),
	}
}

// Pack is the inverse of DecodeRGB.
func (c RGB) Pack() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// EdgeProfile holds the colors down the outermost pixel columns of one strip.
// Left and Right both have one entry per image row.
type EdgeProfile struct {
	Left  []RGB
	Right []RGB
}

// BuildProfiles extracts the left and right edge columns of every strip.
//
// Strip c spans columns [c*stripWidth, (c+1)*stripWidth). Every row in
// [0, height) contributes to both edges. The caller must have validated the
// dimensions; see Validate.
func BuildProfiles(pixels PixelBuffer, width, height, stripWidth int) []EdgeProfile {
	strips := width / stripWidth
	profiles := make([]EdgeProfile, strips)

	for c := 0; c < strips; c++ {
		leftX := c * stripWidth
		rightX := leftX + stripWidth - 1

		p := EdgeProfile{
			Left:  make([]RGB, height),
			Right: make([]RGB, height),
		}
		for r := 0; r < height; r++ {
			row := r * width
			p.Left[r] = DecodeRGB(pixels[row+leftX])
			p.Right[r] = DecodeRGB(pixels[row+rightX])
		}
		profiles[c] = p
	}

	return profiles
}
