package surface

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/nvr-ai/go-overlay/overlay"
)

const (
	boxLineWidth  = 2
	labelFontSize = 14
	labelPadding  = 4
)

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// ComposeOptions controls how a frame is laid out before the overlay is drawn.
type ComposeOptions struct {
	// Width and Height are the display size; zero keeps the frame size.
	Width, Height int
	// Mirror flips the frame horizontally, as the live view shows the camera.
	Mirror bool
}

// Compose draws elements over a copy of frame scaled to the display size.
// Elements are expected in display coordinates, as produced by overlay.MapBox.
//
// Arguments:
//   - frame: The picture or video frame the elements belong to.
//   - elements: The overlay elements of that frame.
//   - opts: Display size and mirroring.
//
// Returns:
//   - image.Image: The composited picture.
func Compose(frame image.Image, elements []overlay.Element, opts ComposeOptions) image.Image {
	bounds := frame.Bounds()
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = bounds.Dx(), bounds.Dy()
	}

	dc := gg.NewContext(width, height)

	dc.Push()
	if opts.Mirror {
		dc.Translate(float64(width), 0)
		dc.Scale(-1, 1)
	}
	dc.Scale(float64(width)/float64(bounds.Dx()), float64(height)/float64(bounds.Dy()))
	dc.DrawImage(frame, -bounds.Min.X, -bounds.Min.Y)
	dc.Pop()

	face := truetype.NewFace(labelFont, &truetype.Options{Size: labelFontSize})
	defer face.Close()
	dc.SetFontFace(face)

	for _, e := range elements {
		switch e.Kind {
		case overlay.ElementBox:
			drawBox(dc, e.Rect, e.Color.RGBA())
		case overlay.ElementLabel:
			drawLabel(dc, e)
		}
	}

	return dc.Image()
}

func drawBox(dc *gg.Context, r overlay.ScreenRect, c color.Color) {
	dc.SetColor(c)
	dc.SetLineWidth(boxLineWidth)
	dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	dc.Stroke()
}

// drawLabel fills the label strip in the category color and writes the text
// on top of it in black or white, whichever reads on that color.
func drawLabel(dc *gg.Context, e overlay.Element) {
	_, textHeight := dc.MeasureString(e.Text)
	stripHeight := textHeight + 2*labelPadding

	dc.SetColor(e.Color.RGBA())
	dc.DrawRectangle(e.Rect.X, e.Rect.Y, e.Rect.Width+2*labelPadding, stripHeight)
	dc.Fill()

	dc.SetColor(e.Color.TextColor())
	dc.DrawStringAnchored(e.Text, e.Rect.X+labelPadding, e.Rect.Y+stripHeight/2, 0, 0.35)
}
