package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-unshred/internal/unshred"
)

// CropResult contains a cropped strip and where it came from
type CropResult struct {
	EncodedImage
	Index int `json:"index"`
	X1    int `json:"x1"`
	X2    int `json:"x2"`
}

// CropStrip extracts strip index of an image cut into strips
func CropStrip(img image.Image, strips, index int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	sw, err := stripWidth(bounds.Dx(), strips)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= strips {
		return nil, fmt.Errorf("strip %d outside [0,%d): %w", index, strips, unshred.ErrInvalidArgument)
	}

	x1 := bounds.Min.X + index*sw
	x2 := x1 + sw
	cropped := imaging.Crop(img, image.Rect(x1, bounds.Min.Y, x2, bounds.Max.Y))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.NearestNeighbor)
	}

	enc, err := EncodeInline(cropped)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		EncodedImage: *enc,
		Index:        index,
		X1:           x1,
		X2:           x2,
	}, nil
}
