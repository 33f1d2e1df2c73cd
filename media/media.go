// Package media - Camera capability, media streams and the video player the engine samples frames from.
package media

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
)

// ErrPermissionDenied is returned when camera access is refused or the device cannot be opened.
var ErrPermissionDenied = errors.New("camera access denied or failed")

// Frame is a decoded video frame.
type Frame struct {
	Image image.Image
	// Time is the presentation time of the frame since the stream started.
	// It never decreases within a stream.
	Time time.Duration
}

// Track is a stoppable source inside a stream. Stopping the last track
// releases the camera hardware.
type Track interface {
	ID() string
	Stop()
}

// Stream is a live media stream.
type Stream interface {
	// Tracks returns the tracks of the stream.
	Tracks() []Track
	// Latest returns the most recent frame, false before the first frame.
	Latest() (Frame, bool)
	// Loaded is closed once the first frame data is available.
	Loaded() <-chan struct{}
}

// Camera grants access to a camera.
type Camera interface {
	// Open requests camera access. Refusal is reported as ErrPermissionDenied.
	Open(ctx context.Context) (Stream, error)
}
