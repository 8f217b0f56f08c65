package render

import "image/color"

var (
	White     = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	Text      = color.RGBA{0x33, 0x33, 0x33, 0xFF}
	AxisGrey  = color.RGBA{0xDD, 0xDD, 0xDD, 0xFF}
	AxisLight = color.RGBA{0xDE, 0xE2, 0xE6, 0xFF}

	DigitalBlue    = color.RGBA{0x21, 0x96, 0xF3, 0xFF}
	CarrierOrange  = color.RGBA{0xFF, 0x98, 0x00, 0xFF}
	ModulatedGreen = color.RGBA{0x4C, 0xAF, 0x50, 0xFF}
	CarrierBlue    = color.RGBA{0x00, 0x7B, 0xFF, 0xFF}

	BitOneGreen = color.RGBA{0x28, 0xA7, 0x45, 0xFF}
	BitZeroRed  = color.RGBA{0xDC, 0x35, 0x45, 0xFF}
	FSKAmber    = color.RGBA{0xFF, 0xC1, 0x07, 0xFF}

	FractionHighlight = color.RGBA{0xFB, 0xBC, 0x05, 0xFF}
	FractionBase      = color.RGBA{0x42, 0x85, 0xF4, 0xFF}
)

// WithAlpha returns col at opacity a (0..1), premultiplied as color.RGBA
// expects.
func WithAlpha(col color.RGBA, a float64) color.RGBA {
	a = min(max(a, 0), 1)
	return color.RGBA{
		R: uint8(float64(col.R) * a),
		G: uint8(float64(col.G) * a),
		B: uint8(float64(col.B) * a),
		A: uint8(255 * a),
	}
}

// BitColour is green for a '1' and red for a '0'.
func BitColour(one bool) color.RGBA {
	if one {
		return BitOneGreen
	}
	return BitZeroRed
}
