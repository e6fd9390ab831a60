package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestEdgeColors(t *testing.T) {
	// left half red, right half blue; two strips
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}
	f, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}

	result, err := EdgeColors(f, 2)
	if err != nil {
		t.Fatalf("EdgeColors failed: %v", err)
	}
	if result.StripWidth != 4 || len(result.Strips) != 2 {
		t.Fatalf("got %d strips of %d, want 2 of 4", len(result.Strips), result.StripWidth)
	}

	s0, s1 := result.Strips[0], result.Strips[1]
	if s0.Left.Hex != "#ff0000" || s0.Right.Hex != "#ff0000" {
		t.Errorf("strip 0 edges: got %s/%s, want #ff0000", s0.Left.Hex, s0.Right.Hex)
	}
	if s1.Left.Hex != "#0000ff" || s1.Right.Hex != "#0000ff" {
		t.Errorf("strip 1 edges: got %s/%s, want #0000ff", s1.Left.Hex, s1.Right.Hex)
	}
	if s1.Left.HSL.H != 240 || s1.Left.HSL.S != 100 || s1.Left.HSL.L != 50 {
		t.Errorf("strip 1 HSL: got %+v, want {240 100 50}", s1.Left.HSL)
	}
	if s0.Spread != 0 || s1.Spread != 0 {
		t.Errorf("solid strips should have zero spread, got %v and %v", s0.Spread, s1.Spread)
	}
}

func TestEdgeColors_MeanAndSpread(t *testing.T) {
	img := createGradientImage(8, 2)
	f, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}

	result, err := EdgeColors(f, 1)
	if err != nil {
		t.Fatalf("EdgeColors failed: %v", err)
	}
	s := result.Strips[0]
	if s.Left.RGB.R != 0 || s.Right.RGB.R != 49 {
		t.Errorf("edge reds: got %d/%d, want 0/49", s.Left.RGB.R, s.Right.RGB.R)
	}
	// each row differs by 49 in red and green: 49*sqrt(2) = 69.30
	if s.Spread != 69.3 {
		t.Errorf("Spread: got %v, want 69.3", s.Spread)
	}
}

func TestEdgeColors_InvalidStrips(t *testing.T) {
	f, err := FromImage(createGradientImage(8, 2))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if _, err := EdgeColors(f, 3); err == nil {
		t.Error("EdgeColors should fail when strips do not divide the width")
	}
}
