package imaging

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Palette returns n visually distinct opaque colours, one per class index.
// Hues are spaced evenly in HCL so neighbouring classes stay apart; the
// result depends only on n.
func Palette(n int) []color.NRGBA {
	colors := make([]color.NRGBA, n)
	for i := 0; i < n; i++ {
		c := colorful.Hcl(float64(i)*360/float64(n), 0.75, 0.6).Clamped()
		r, g, b := c.RGB255()
		colors[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// ParseHexColor parses "#RRGGBB".
func ParseHexColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, errors.Wrapf(err, "invalid colour %q", hex)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// colorFor picks the palette entry for class, wrapping for indices past the
// end and falling back to white for an empty palette.
func colorFor(palette []color.NRGBA, class int) color.NRGBA {
	if len(palette) == 0 || class < 0 {
		return color.NRGBA{255, 255, 255, 255}
	}
	return palette[class%len(palette)]
}
