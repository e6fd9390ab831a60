package imaging

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-unshred/internal/unshred"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorSummary describes the mean color of one strip edge.
type ColorSummary struct {
	Hex string   `json:"hex"` // Hex format "#rrggbb"
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`
}

// StripEdges holds the mean edge colors of a single strip.
type StripEdges struct {
	Index int          `json:"index"`
	Left  ColorSummary `json:"left"`
	Right ColorSummary `json:"right"`

	// Spread is the mean per-row RGB distance between the strip's own left and
	// right edges. Strips with a high spread carry strong horizontal detail,
	// which makes their neighbors easier to find.
	Spread float64 `json:"spread"`
}

// EdgeColorsResult summarizes the edges of every strip, in strip order.
type EdgeColorsResult struct {
	StripWidth int          `json:"strip_width"`
	Strips     []StripEdges `json:"strips"`
}

// EdgeColors computes the mean left and right edge color of every strip in
// frame, using the same edge columns the reconstruction compares.
func EdgeColors(frame *Frame, strips int) (*EdgeColorsResult, error) {
	sw, err := frame.StripWidth(strips)
	if err != nil {
		return nil, err
	}

	profiles := unshred.BuildProfiles(frame.Pixels, frame.Width, frame.Height, sw)
	out := make([]StripEdges, len(profiles))
	for i, p := range profiles {
		out[i] = StripEdges{
			Index:  i,
			Left:   summarize(p.Left),
			Right:  summarize(p.Right),
			Spread: math.Round(unshred.EdgeDistance(p.Left, p.Right)/float64(len(p.Left))*100) / 100,
		}
	}

	return &EdgeColorsResult{StripWidth: sw, Strips: out}, nil
}

func summarize(edge []unshred.RGB) ColorSummary {
	var r, g, b float64
	for _, c := range edge {
		r += float64(c.R)
		g += float64(c.G)
		b += float64(c.B)
	}
	n := float64(len(edge)) * 255
	c := colorful.Color{R: r / n, G: g / n, B: b / n}.Clamped()

	r8, g8, b8 := c.RGB255()
	h, s, l := c.Hsl()
	return ColorSummary{
		Hex: c.Hex(),
		RGB: RGBColor{R: r8, G: g8, B: b8},
		HSL: HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
	}
}
