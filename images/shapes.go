// Package images - Image decoding and box geometry helpers.
package images

import "github.com/chewxy/math32"

// Rect is a lightweight bounding box.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// RectFromCorners rounds float corners to the nearest pixel and orders them.
func RectFromCorners(x1, y1, x2, y2 float32) Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{
		X1: int(math32.Round(x1)),
		Y1: int(math32.Round(y1)),
		X2: int(math32.Round(x2)),
		Y2: int(math32.Round(y2)),
	}
}

// Area returns the area in pixels, zero for degenerate rectangles.
func (r Rect) Area() int {
	w, h := r.X2-r.X1, r.Y2-r.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// CalculateIoU returns the intersection over union of two rectangles, a value
// between 0.0 (disjoint) and 1.0 (identical).
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle to compare against.
//
// Returns:
//   - float32: The IoU score.
func CalculateIoU(r, o Rect) float32 {
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	// Disjoint or touching rectangles do not intersect.
	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	return float32(interArea) / float32(unionArea)
}
