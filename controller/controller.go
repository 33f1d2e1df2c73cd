// Package controller - Image and video detection controllers and the engine
// that wires them to a shared detector.
package controller

import (
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-overlay/detection"
	"github.com/nvr-ai/go-overlay/overlay"
)

// ErrTargetUnavailable is returned when an image request has no image or no
// overlay container to draw into.
var ErrTargetUnavailable = errors.New("image target or container unavailable")

// CameraDeniedMessage is the alert shown when camera access is refused.
const CameraDeniedMessage = "Camera access is required for live detection. Please allow camera access and try again."

// Notifier shows blocking, user facing alerts.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Alert implements Notifier.
func (f NotifierFunc) Alert(message string) {
	f(message)
}

// logNotifier reports alerts through the logger when no UI is attached.
type logNotifier struct {
	logger *zap.Logger
}

func (n logNotifier) Alert(message string) {
	n.logger.Warn("alert", zap.String("message", message))
}

// ImageContainer is the overlay layer wrapped around a displayed image.
type ImageContainer interface {
	overlay.Surface
	// Resize sets the container size so it matches the displayed image.
	Resize(width, height float64)
}

// ImageTarget is a displayed static image.
type ImageTarget interface {
	// Image returns the decoded picture.
	Image() image.Image
	// NaturalSize returns the intrinsic pixel size of the picture.
	NaturalSize() (width, height float64)
	// DisplaySize returns the size the picture is shown at.
	DisplaySize() (width, height float64)
	// Container returns the overlay container of the picture, nil if none.
	Container() ImageContainer
}

// countDetections adds one detection per rendered box to the category counter.
func countDetections(elems []overlay.Element, record func(string)) {
	for _, e := range elems {
		if e.Kind == overlay.ElementBox {
			record(e.Category)
		}
	}
}

// isNotReady reports whether err means the detector is not loaded.
func isNotReady(err error) bool {
	return errors.Is(err, detection.ErrNotReady)
}
