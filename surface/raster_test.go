package surface

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/go-overlay/overlay"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// halfFrame is red on the left half and blue on the right half.
func halfFrame(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, image.Rect(0, 0, width/2, height), &image.Uniform{C: red}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(width/2, 0, width, height), &image.Uniform{C: blue}, image.Point{}, draw.Src)
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestComposeMirror(t *testing.T) {
	out := Compose(halfFrame(100, 50), nil, ComposeOptions{Mirror: true})

	assert.Equal(t, image.Rect(0, 0, 100, 50), out.Bounds())
	assert.Equal(t, blue, rgbaAt(out, 10, 25))
	assert.Equal(t, red, rgbaAt(out, 90, 25))

	out = Compose(halfFrame(100, 50), nil, ComposeOptions{})
	assert.Equal(t, red, rgbaAt(out, 10, 25))
}

func TestComposeScales(t *testing.T) {
	out := Compose(halfFrame(100, 50), nil, ComposeOptions{Width: 50, Height: 25})

	assert.Equal(t, image.Rect(0, 0, 50, 25), out.Bounds())
	assert.Equal(t, red, rgbaAt(out, 5, 12))
	assert.Equal(t, blue, rgbaAt(out, 45, 12))
}

func TestComposeElements(t *testing.T) {
	green := overlay.RGB{G: 255}
	elements := []overlay.Element{
		{Kind: overlay.ElementBox, Category: "Dog", Rect: overlay.ScreenRect{X: 10, Y: 10, Width: 30, Height: 30}, Color: green},
		{Kind: overlay.ElementLabel, Category: "Dog", Rect: overlay.ScreenRect{X: 60, Y: 5, Width: 30}, Color: green, Text: "Dog 90%"},
	}

	out := Compose(halfFrame(100, 50), elements, ComposeOptions{})

	edge := rgbaAt(out, 10, 25)
	assert.NotEqual(t, red, edge)
	assert.Greater(t, edge.G, edge.R)

	// Inside the box the frame is untouched.
	assert.Equal(t, red, rgbaAt(out, 25, 25))

	// The label strip starts at the label origin in the category color.
	strip := rgbaAt(out, 61, 6)
	assert.NotEqual(t, blue, strip)
}

// countIn counts the pixels of r in img matching fn.
func countIn(img image.Image, r image.Rectangle, fn func(color.RGBA) bool) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if fn(rgbaAt(img, x, y)) {
				n++
			}
		}
	}
	return n
}

func TestComposeLabelTextColor(t *testing.T) {
	dark := func(c color.RGBA) bool { return c.R < 80 && c.G < 80 && c.B < 80 }
	light := func(c color.RGBA) bool { return c.R > 200 && c.G > 200 && c.B > 200 }
	strip := image.Rect(10, 10, 110, 28)

	label := func(c overlay.RGB) []overlay.Element {
		return []overlay.Element{{
			Kind: overlay.ElementLabel, Category: "Dog", Color: c, Text: "Dog 90%",
			Rect: overlay.ScreenRect{X: 10, Y: 10, Width: 100},
		}}
	}
	frame := image.NewRGBA(image.Rect(0, 0, 200, 60))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{C: color.RGBA{R: 128, G: 128, B: 128, A: 255}}, image.Point{}, draw.Src)
	opts := ComposeOptions{Width: 200, Height: 60}

	yellow := Compose(frame, label(overlay.RGB{R: 255, G: 255}), opts)
	assert.Positive(t, countIn(yellow, strip, dark), "black text on a light label")
	assert.Zero(t, countIn(yellow, strip, light))

	navy := Compose(frame, label(overlay.RGB{B: 128}), opts)
	assert.Positive(t, countIn(navy, strip, light), "white text on a dark label")
	assert.Zero(t, countIn(navy, strip, dark))
}
