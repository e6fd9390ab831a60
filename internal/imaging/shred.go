package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-unshred/internal/unshred"
)

// Shred cuts img into strips of equal width and reassembles them in a random
// order drawn from seed.
//
// The returned order maps output strip position to source strip index: output
// strip k is source strip order[k]. The same seed always produces the same
// order. strips must divide the image width.
func Shred(img image.Image, strips int, seed int64) (*image.NRGBA, unshred.StripOrder, error) {
	bounds := img.Bounds()
	sw, err := stripWidth(bounds.Dx(), strips)
	if err != nil {
		return nil, nil, err
	}

	order := make(unshred.StripOrder, strips)
	for i := range order {
		order[i] = i
	}
	shuffle(order, rand.New(rand.NewSource(seed)))

	dst := imaging.New(bounds.Dx(), bounds.Dy(), color.NRGBA{A: 255})
	for k, src := range order {
		x0 := bounds.Min.X + src*sw
		strip := imaging.Crop(img, image.Rect(x0, bounds.Min.Y, x0+sw, bounds.Max.Y))
		dst = imaging.Paste(dst, strip, image.Pt(k*sw, 0))
	}

	return dst, order, nil
}

// shuffle is a Fisher-Yates shuffle.
func shuffle(order unshred.StripOrder, rng *rand.Rand) {
	for i := len(order) - 1; i >= 1; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
}

// Invert returns the inverse permutation of order.
func Invert(order unshred.StripOrder) unshred.StripOrder {
	inv := make(unshred.StripOrder, len(order))
	for k, s := range order {
		inv[s] = k
	}
	return inv
}

// Compose maps a reconstruction order (positions in the shredded image) back
// to source strips: result[k] = shredOrder[unshredOrder[k]].
func Compose(shredOrder, unshredOrder unshred.StripOrder) (unshred.StripOrder, error) {
	if err := unshred.ValidateOrder(unshredOrder, len(shredOrder)); err != nil {
		return nil, fmt.Errorf("reconstruction order: %w", err)
	}
	out := make(unshred.StripOrder, len(unshredOrder))
	for k, s := range unshredOrder {
		out[k] = shredOrder[s]
	}
	return out, nil
}
