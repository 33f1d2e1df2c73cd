package media

import (
	"sync"
	"time"
)

// Player plays a stream the way a video element does: a stream is attached
// as its source, and the current frame and playback time are read from it.
type Player struct {
	mu     sync.RWMutex
	stream Stream
}

// NewPlayer creates a player without a source.
func NewPlayer() *Player {
	return &Player{}
}

// Attach sets s as the source, replacing any previous one.
func (p *Player) Attach(s Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stream = s
}

// Detach removes the source and returns it, nil when none was attached.
func (p *Player) Detach() Stream {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stream
	p.stream = nil
	return s
}

// Source returns the attached stream.
func (p *Player) Source() Stream {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stream
}

// Frame returns the frame currently shown.
//
// Returns:
//   - Frame: The current frame.
//   - bool: False without a source or before the first frame.
func (p *Player) Frame() (Frame, bool) {
	s := p.Source()
	if s == nil {
		return Frame{}, false
	}
	return s.Latest()
}

// CurrentTime returns the playback position, -1 when nothing is playing.
func (p *Player) CurrentTime() time.Duration {
	f, ok := p.Frame()
	if !ok {
		return -1
	}
	return f.Time
}

// DisplayWidth returns the width of the frame currently shown, 0 before the
// first frame.
func (p *Player) DisplayWidth() int {
	f, ok := p.Frame()
	if !ok || f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}
