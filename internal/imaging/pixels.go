package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-unshred/internal/unshred"
)

// Frame is a decoded image in pixel buffer form.
type Frame struct {
	// Pixels holds Width*Height packed 0xRRGGBB values, row-major.
	Pixels unshred.PixelBuffer

	// Width is the image width in pixels.
	Width int

	// Height is the image height in pixels.
	Height int

	// Format is the name reported by the decoder ("png", "jpeg", ...), or
	// empty for frames built in memory.
	Format string
}

// FromImage flattens img into a Frame.
//
// The image is first normalized to RGBA with bild's clone package, so every
// image.Image implementation (paletted, YCbCr, 16-bit, ...) is handled the
// same way. An image with empty bounds cannot be reconstructed and is
// reported as unshred.ErrPixelAcquisition.
func FromImage(img image.Image) (*Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image: %w", unshred.ErrPixelAcquisition)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has empty bounds %v: %w", bounds, unshred.ErrPixelAcquisition)
	}

	rgba := clone.AsRGBA(img)
	rb := rgba.Bounds()
	width, height := rb.Dx(), rb.Dy()

	px := make(unshred.PixelBuffer, width*height)
	for y := 0; y < height; y++ {
		off := rgba.PixOffset(rb.Min.X, rb.Min.Y+y)
		for x := 0; x < width; x++ {
			p := rgba.Pix[off : off+4 : off+4]
			px[y*width+x] = uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
			off += 4
		}
	}

	return &Frame{Pixels: px, Width: width, Height: height}, nil
}

// NewFrame wraps an existing buffer. The buffer length must match the
// dimensions.
func NewFrame(px unshred.PixelBuffer, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 || len(px) != width*height {
		return nil, fmt.Errorf("buffer of %d pixels does not fit %dx%d: %w",
			len(px), width, height, unshred.ErrInvalidArgument)
	}
	return &Frame{Pixels: px, Width: width, Height: height}, nil
}

// Image renders the frame as an opaque NRGBA image with bounds at the origin.
func (f *Frame) Image() *image.NRGBA {
	img := imaging.New(f.Width, f.Height, color.NRGBA{A: 255})
	for i, p := range f.Pixels {
		o := i * 4
		img.Pix[o] = uint8(p >> 16)
		img.Pix[o+1] = uint8(p >> 8)
		img.Pix[o+2] = uint8(p)
		img.Pix[o+3] = 255
	}
	return img
}

// StripWidth returns the strip width for strips, or an error wrapping
// unshred.ErrInvalidArgument if strips does not evenly divide the width.
func (f *Frame) StripWidth(strips int) (int, error) {
	return stripWidth(f.Width, strips)
}

func stripWidth(width, strips int) (int, error) {
	if strips <= 0 {
		return 0, fmt.Errorf("strip count %d must be positive: %w", strips, unshred.ErrInvalidArgument)
	}
	if width%strips != 0 {
		return 0, fmt.Errorf("width %d is not divisible by %d strips: %w", width, strips, unshred.ErrInvalidArgument)
	}
	return width / strips, nil
}
