package detection

import (
	"context"
	"image"

	"github.com/pkg/errors"
)

var (
	// ErrNotReady is returned when the detector has not finished loading.
	ErrNotReady = errors.New("object detector not ready")
	// ErrModeMismatch is returned when a detect call does not match the configured running mode.
	ErrModeMismatch = errors.New("detector running mode does not match the call type")
	// ErrTimestampRegression is returned when a video timestamp goes backwards.
	ErrTimestampRegression = errors.New("video timestamp is older than the previous frame")
)

// Detector is the object detection capability.
//
// SetOptions is asynchronous from the caller's point of view: it may block
// until the new running mode is in effect, and it must complete before a
// detect call relying on that mode is issued.
type Detector interface {
	// Ready reports whether the detector finished loading.
	Ready() bool
	// RunningMode returns the currently configured mode.
	RunningMode() RunningMode
	// SetOptions switches the running mode and score threshold.
	SetOptions(ctx context.Context, opts Options) error
	// Detect runs a single-shot detection. Requires ModeImage.
	Detect(ctx context.Context, img image.Image) (Result, error)
	// DetectForVideo runs detection on a video frame. Requires ModeVideo and
	// non-decreasing timestamps in milliseconds.
	DetectForVideo(ctx context.Context, frame image.Image, timestampMs int64) (Result, error)
}
