package overlay

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-overlay/detection"
)

// Renderer turns detection results into overlay elements. It owns the
// elements it installs on a surface: every pass replaces the previous pass of
// that surface wholesale and never touches another surface.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render replaces the overlays of surface with one box and one label per
// detection, in result order, and returns the categories seen in this pass.
// Detections without categories are skipped. Nothing is replaced when the
// surface dimensions cannot be mapped.
//
// Arguments:
//   - result: The detection result to draw.
//   - surface: The render target.
//
// Returns:
//   - CategorySet: The display categories of this pass.
//   - error: A dimension or mapping error.
func (r *Renderer) Render(result detection.Result, surface Surface) (CategorySet, error) {
	if surface == nil {
		return nil, errors.New("render target is nil")
	}
	ctx, err := surface.RenderContext()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s surface dimensions", surface.Kind())
	}

	elems, seen, err := r.Elements(result, ctx)
	if err != nil {
		return nil, err
	}
	surface.ReplaceOverlays(elems)
	return seen, nil
}

// Elements builds the overlay elements of result without installing them.
//
// Arguments:
//   - result: The detection result to draw.
//   - ctx: The surface dimensions.
//
// Returns:
//   - []Element: Box and label per detection.
//   - CategorySet: The display categories of the result.
//   - error: ErrInvalidDimension when ctx cannot be mapped.
func (r *Renderer) Elements(result detection.Result, ctx RenderContext) ([]Element, CategorySet, error) {
	seen := NewCategorySet()
	elems := make([]Element, 0, 2*result.Len())

	for i, d := range result.Detections {
		top, ok := d.Top()
		if !ok {
			continue
		}

		name := CategoryLabel(top.Name)
		score := ScorePercent(top.Score)
		color := ColorFor(name)

		placement, err := MapBox(d.Box, ctx)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "mapping detection %d", i)
		}

		elems = append(elems,
			Element{
				Kind:     ElementBox,
				Category: name,
				Score:    score,
				Rect:     placement.Box.Clamp(),
				Color:    color,
			},
			Element{
				Kind:     ElementLabel,
				Category: name,
				Score:    score,
				Rect:     placement.Label.Clamp(),
				Color:    color,
				Text:     LabelText(name, score),
			},
		)
		seen.Add(name)
	}

	return elems, seen, nil
}

// Clear removes every overlay element of surface.
func (r *Renderer) Clear(surface Surface) {
	if surface != nil {
		surface.ReplaceOverlays(nil)
	}
}
