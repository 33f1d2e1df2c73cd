package overlay

import (
	"image/color"
	"unicode/utf16"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// colorSeed is the fixed starting value of the category hash.
const colorSeed int32 = 987654321

// RGB is a highlight color.
type RGB struct {
	R, G, B uint8
}

// ColorFor returns the stable highlight color of a category.
//
// The name is folded into a 32-bit signed hash with hash = (hash << 5) + c
// over its UTF-16 code units, starting from a fixed seed, and masked to 24
// bits. The same name always yields the same color.
//
// Arguments:
//   - name: The display category name.
//
// Returns:
//   - RGB: The category color.
func ColorFor(name string) RGB {
	hash := colorSeed
	for _, c := range utf16.Encode([]rune(name)) {
		hash = (hash << 5) + int32(c)
	}
	hash &= 0xFFFFFF
	return RGB{
		R: uint8((hash >> 16) & 0xFF),
		G: uint8((hash >> 8) & 0xFF),
		B: uint8(hash & 0xFF),
	}
}

// RGBA returns the color for raster sinks.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
}

// textLightnessLimit is the CIE L* above which label text turns black.
const textLightnessLimit = 0.6

// TextColor returns the label text color readable on c: black on light
// category colors, white otherwise.
func (c RGB) TextColor() color.RGBA {
	cf, _ := colorful.MakeColor(c.RGBA())
	if l, _, _ := cf.Lab(); l > textLightnessLimit {
		return color.RGBA{A: 0xFF}
	}
	return color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
}
