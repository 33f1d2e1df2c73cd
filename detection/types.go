// Package detection - Detection results and the detector capability consumed by the overlay engine.
package detection

import (
	"fmt"
)

// BoundingBox is a detection rectangle in the detector's native pixel space,
// relative to the image or frame that was handed to the detector.
type BoundingBox struct {
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Category is a single classification for a detection.
type Category struct {
	// Name is the raw class name reported by the detector (e.g. "traffic light").
	Name string `json:"name"`
	// Score is the confidence in [0, 1].
	Score float64 `json:"score"`
}

// Detection is one detected object. Categories are ordered best first.
type Detection struct {
	Box        BoundingBox `json:"box"`
	Categories []Category  `json:"categories"`
}

// Top returns the best ranked category of the detection.
//
// Returns:
//   - Category: The top category.
//   - bool: False when the detection carries no categories.
func (d Detection) Top() (Category, bool) {
	if len(d.Categories) == 0 {
		return Category{}, false
	}
	return d.Categories[0], true
}

// Result is the ordered output of a single detector call.
type Result struct {
	Detections []Detection `json:"detections"`
}

// Len returns the number of detections in the result.
func (r Result) Len() int {
	return len(r.Detections)
}

// RunningMode is the mutually exclusive configuration of the detector.
type RunningMode int

const (
	// ModeImage configures the detector for single still images.
	ModeImage RunningMode = iota
	// ModeVideo configures the detector for timestamped video frames.
	ModeVideo
)

// String returns the mode name.
func (m RunningMode) String() string {
	switch m {
	case ModeImage:
		return "IMAGE"
	case ModeVideo:
		return "VIDEO"
	default:
		return fmt.Sprintf("RunningMode(%d)", int(m))
	}
}

// Options is the detector configuration applied by a mode switch.
type Options struct {
	RunningMode    RunningMode
	ScoreThreshold float64
}
