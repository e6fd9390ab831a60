package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultOverlayColor is used when no line color is given or it fails to parse.
const DefaultOverlayColor = "#ff0000"

// OverlayResult contains the image with strip boundaries drawn on it
type OverlayResult struct {
	EncodedImage
	Strips     int `json:"strips"`
	StripWidth int `json:"strip_width"`
}

// StripOverlay draws the boundaries between strips onto a copy of img and,
// if showLabels is set, labels each strip with its index in the top-left
// corner. lineHex is a "#rrggbb" color; an unparsable value falls back to
// DefaultOverlayColor.
func StripOverlay(img image.Image, strips int, lineHex string, showLabels bool) (*OverlayResult, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	sw, err := stripWidth(width, strips)
	if err != nil {
		return nil, err
	}

	lineColor := parseHexColor(lineHex)

	result := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	for x := sw; x < width; x += sw {
		for y := 0; y < height; y++ {
			result.Set(x, y, lineColor)
		}
	}

	if showLabels {
		labelColor := color.RGBA{255, 255, 255, 255}
		bgColor := color.RGBA{0, 0, 0, 180}
		for i := 0; i < strips; i++ {
			drawLabel(result, i*sw+2, 2, fmt.Sprintf("%d", i), labelColor, bgColor)
		}
	}

	enc, err := EncodeInline(result)
	if err != nil {
		return nil, err
	}

	return &OverlayResult{
		EncodedImage: *enc,
		Strips:       strips,
		StripWidth:   sw,
	}, nil
}

// parseHexColor parses "#rrggbb" with go-colorful, defaulting to red.
func parseHexColor(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(DefaultOverlayColor)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawLabel draws a number using a 3x5 pixel font
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	const charWidth, labelHeight = 4, 7
	labelWidth := len(text) * charWidth

	in := func(px, py int) bool {
		return px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y
	}

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if px, py := x+dx, y+dy; in(px, py) {
				img.Set(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if px, py := cx+col, y+row; pixel == '1' && in(px, py) {
					img.Set(px, py, fg)
				}
			}
		}
		cx += charWidth
	}
}
