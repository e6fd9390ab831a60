package imaging

import (
	"errors"
	"image/color"
	"reflect"
	"testing"

	"github.com/ironsheep/image-unshred/internal/unshred"
)

func TestShred(t *testing.T) {
	src := createGradientImage(32, 6)

	shredded, order, err := Shred(src, 8, 7)
	if err != nil {
		t.Fatalf("Shred failed: %v", err)
	}
	if err := unshred.ValidateOrder(order, 8); err != nil {
		t.Fatalf("order %v is not a permutation: %v", order, err)
	}
	if b := shredded.Bounds(); b.Dx() != 32 || b.Dy() != 6 {
		t.Fatalf("bounds: got %v, want 32x6", b)
	}

	for k, s := range order {
		for y := 0; y < 6; y++ {
			got := color.NRGBAModel.Convert(shredded.At(k*4, y)).(color.NRGBA)
			want := src.RGBAAt(s*4, y)
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Fatalf("strip position %d row %d: got %v, want source strip %d %v", k, y, got, s, want)
			}
		}
	}
}

func TestShred_SameSeedSameOrder(t *testing.T) {
	src := createGradientImage(30, 2)

	_, a, err := Shred(src, 10, 99)
	if err != nil {
		t.Fatalf("Shred failed: %v", err)
	}
	_, b, err := Shred(src, 10, 99)
	if err != nil {
		t.Fatalf("Shred failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("orders differ for the same seed: %v vs %v", a, b)
	}
}

func TestShred_InvalidStrips(t *testing.T) {
	src := createGradientImage(30, 2)
	for _, n := range []int{0, -2, 7} {
		if _, _, err := Shred(src, n, 1); !errors.Is(err, unshred.ErrInvalidArgument) {
			t.Errorf("Shred(%d) error = %v, want ErrInvalidArgument", n, err)
		}
	}
}

func TestShred_ThenReconstruct(t *testing.T) {
	const strips = 4
	src := createGradientImage(32, 8)

	for _, seed := range []int64{1, 2, 3, 4, 5} {
		shredded, shredOrder, err := Shred(src, strips, seed)
		if err != nil {
			t.Fatalf("Shred failed: %v", err)
		}
		frame, err := FromImage(shredded)
		if err != nil {
			t.Fatalf("FromImage failed: %v", err)
		}

		res, err := unshred.New().Reconstruct(frame.Pixels, frame.Width, frame.Height, strips)
		if err != nil {
			t.Fatalf("seed %d: Reconstruct failed: %v", seed, err)
		}

		recovered, err := Compose(shredOrder, res.Order)
		if err != nil {
			t.Fatalf("Compose failed: %v", err)
		}
		if acc := unshred.NeighborAccuracy(recovered, unshred.StripOrder{0, 1, 2, 3}); acc != 1 {
			t.Errorf("seed %d: recovered %v from shred %v, accuracy %.2f", seed, recovered, shredOrder, acc)
		}
	}
}

func TestInvertAndCompose(t *testing.T) {
	order := unshred.StripOrder{2, 0, 3, 1}
	inv := Invert(order)
	if want := (unshred.StripOrder{1, 3, 0, 2}); !reflect.DeepEqual(inv, want) {
		t.Fatalf("Invert: got %v, want %v", inv, want)
	}

	// undoing the shred exactly gives back the identity
	got, err := Compose(order, inv)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if want := (unshred.StripOrder{0, 1, 2, 3}); !reflect.DeepEqual(got, want) {
		t.Errorf("Compose: got %v, want %v", got, want)
	}

	if _, err := Compose(order, unshred.StripOrder{0, 0, 1, 2}); !errors.Is(err, unshred.ErrInvalidArgument) {
		t.Errorf("Compose error = %v, want ErrInvalidArgument", err)
	}
}
