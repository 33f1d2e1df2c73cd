// Package mediatest - In-memory camera and stream fakes.
package mediatest

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/nvr-ai/go-overlay/media"
)

// Stream is a media.Stream whose frames are pushed by the test.
type Stream struct {
	mu         sync.Mutex
	latest     media.Frame
	has        bool
	loaded     chan struct{}
	loadedOnce sync.Once
	tracks     []*Track
}

// NewStream creates a stream with one video track.
func NewStream() *Stream {
	s := &Stream{loaded: make(chan struct{})}
	s.tracks = []*Track{{id: "video"}}
	return s
}

// Push publishes a 4x4 frame at time ts and signals Loaded on the first one.
func (s *Stream) Push(ts time.Duration) {
	s.PushImage(image.NewRGBA(image.Rect(0, 0, 4, 4)), ts)
}

// PushImage publishes img at time ts and signals Loaded on the first one.
func (s *Stream) PushImage(img image.Image, ts time.Duration) {
	s.mu.Lock()
	s.latest = media.Frame{Image: img, Time: ts}
	s.has = true
	s.mu.Unlock()
	s.loadedOnce.Do(func() { close(s.loaded) })
}

// Tracks implements media.Stream.
func (s *Stream) Tracks() []media.Track {
	out := make([]media.Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

// Latest implements media.Stream.
func (s *Stream) Latest() (media.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.has
}

// Loaded implements media.Stream.
func (s *Stream) Loaded() <-chan struct{} {
	return s.loaded
}

// Stopped reports whether every track was stopped.
func (s *Stream) Stopped() bool {
	for _, t := range s.tracks {
		if t.Stops() == 0 {
			return false
		}
	}
	return true
}

// Track is a media.Track counting Stop calls.
type Track struct {
	id    string
	mu    sync.Mutex
	stops int
}

// ID implements media.Track.
func (t *Track) ID() string {
	return t.id
}

// Stop implements media.Track.
func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stops++
}

// Stops returns how many times Stop was called.
func (t *Track) Stops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}

// Camera is a media.Camera handing out prepared streams.
type Camera struct {
	mu      sync.Mutex
	streams []*Stream
	deny    bool
	opens   int
	block   chan struct{}
}

// NewCamera creates a camera that returns the given streams in order, then fresh ones.
func NewCamera(streams ...*Stream) *Camera {
	return &Camera{streams: streams}
}

// Deny makes Open fail with media.ErrPermissionDenied.
func (c *Camera) Deny() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deny = true
}

// BlockOpen makes Open wait, like a pending permission prompt, until the
// returned channel is closed.
func (c *Camera) BlockOpen() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = make(chan struct{})
	return c.block
}

// Opens returns how many times Open was called.
func (c *Camera) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

// Open implements media.Camera.
func (c *Camera) Open(ctx context.Context) (media.Stream, error) {
	c.mu.Lock()
	c.opens++
	block := c.block
	c.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deny {
		return nil, media.ErrPermissionDenied
	}
	if len(c.streams) == 0 {
		return NewStream(), nil
	}
	s := c.streams[0]
	c.streams = c.streams[1:]
	return s, nil
}
