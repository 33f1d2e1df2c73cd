// Package overlay - Maps detector geometry to display space and renders overlay elements per surface.
package overlay

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-overlay/detection"
)

// LabelInset is the horizontal space reserved for label padding and border.
const LabelInset = 10

// ErrInvalidDimension is returned when a surface dimension needed for mapping
// is zero, negative or not a number.
var ErrInvalidDimension = errors.New("invalid surface dimension")

// SurfaceKind identifies the coordinate convention of a surface.
type SurfaceKind int

const (
	// SurfaceImage is a static image scaled to its display size, never mirrored.
	SurfaceImage SurfaceKind = iota
	// SurfaceVideo is a live preview rendered at native resolution and mirrored horizontally.
	SurfaceVideo
)

// String returns the surface kind name.
func (k SurfaceKind) String() string {
	switch k {
	case SurfaceImage:
		return "image"
	case SurfaceVideo:
		return "video"
	default:
		return "unknown"
	}
}

// RenderContext carries the dimensions of a surface at render time.
type RenderContext struct {
	Kind SurfaceKind
	// NaturalWidth and NaturalHeight are the intrinsic size of the image.
	// Unused for video surfaces.
	NaturalWidth  float64
	NaturalHeight float64
	// DisplayWidth and DisplayHeight are the rendered size of the visual.
	DisplayWidth  float64
	DisplayHeight float64
}

// ScreenRect is a rectangle in display pixels.
type ScreenRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Clamp returns r with negative sizes replaced by zero.
func (r ScreenRect) Clamp() ScreenRect {
	r.Width = math.Max(0, r.Width)
	r.Height = math.Max(0, r.Height)
	return r
}

// Placement is the display geometry of one detection.
type Placement struct {
	// Box is the highlight rectangle.
	Box ScreenRect
	// Label is the text anchor. Its width may be negative for tiny boxes and
	// must be clamped by the caller.
	Label ScreenRect
}

// MapBox converts a detector bounding box into display space.
//
// Image surfaces are scaled by DisplayHeight / NaturalHeight. Video surfaces
// keep native coordinates but are mirrored horizontally because the preview
// is shown mirrored while detector coordinates are not.
//
// Arguments:
//   - box: The bounding box in detector space.
//   - ctx: The surface dimensions.
//
// Returns:
//   - Placement: Box and label geometry.
//   - error: ErrInvalidDimension when a required dimension is unusable.
//
// @example
// p, _ := MapBox(detection.BoundingBox{OriginX: 40, OriginY: 20, Width: 60, Height: 30},
//
//	RenderContext{Kind: SurfaceImage, NaturalHeight: 200, DisplayHeight: 100})
//
// // p.Box == ScreenRect{X: 20, Y: 10, Width: 30, Height: 15}, p.Label.Width == 20
func MapBox(box detection.BoundingBox, ctx RenderContext) (Placement, error) {
	switch ctx.Kind {
	case SurfaceImage:
		if !usable(ctx.NaturalHeight) {
			return Placement{}, errors.Wrapf(ErrInvalidDimension, "natural height %v", ctx.NaturalHeight)
		}
		if !finite(ctx.DisplayHeight) {
			return Placement{}, errors.Wrapf(ErrInvalidDimension, "display height %v", ctx.DisplayHeight)
		}
		ratio := ctx.DisplayHeight / ctx.NaturalHeight
		rect := ScreenRect{
			X:      box.OriginX * ratio,
			Y:      box.OriginY * ratio,
			Width:  box.Width * ratio,
			Height: box.Height * ratio,
		}
		return Placement{
			Box:   rect,
			Label: ScreenRect{X: rect.X, Y: rect.Y, Width: rect.Width - LabelInset},
		}, nil

	case SurfaceVideo:
		if !usable(ctx.DisplayWidth) {
			return Placement{}, errors.Wrapf(ErrInvalidDimension, "display width %v", ctx.DisplayWidth)
		}
		rect := ScreenRect{
			X:      ctx.DisplayWidth - box.Width - box.OriginX,
			Y:      box.OriginY,
			Width:  box.Width,
			Height: box.Height,
		}
		return Placement{
			Box:   rect,
			Label: ScreenRect{X: rect.X, Y: rect.Y, Width: box.Width - LabelInset},
		}, nil

	default:
		return Placement{}, errors.Errorf("unknown surface kind %d", ctx.Kind)
	}
}

// usable reports whether v can be used as a divisor or reference length.
func usable(v float64) bool {
	return finite(v) && v > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
