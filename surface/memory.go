// Package surface - Overlay containers and raster sinks for rendered detections.
package surface

import (
	"sync"

	"github.com/nvr-ai/go-overlay/overlay"
)

// Memory is an in-memory overlay container. It stands in for the overlay
// layer of a view: the renderer writes elements into it, a compositor or UI
// reads them back.
type Memory struct {
	mu     sync.RWMutex
	kind   overlay.SurfaceKind
	ctx    overlay.RenderContext
	elems  []overlay.Element
	width  float64
	height float64
}

// NewImage creates an image surface for a picture of the given natural size
// shown at the given display size.
func NewImage(naturalWidth, naturalHeight, displayWidth, displayHeight float64) *Memory {
	return &Memory{
		kind: overlay.SurfaceImage,
		ctx: overlay.RenderContext{
			Kind:          overlay.SurfaceImage,
			NaturalWidth:  naturalWidth,
			NaturalHeight: naturalHeight,
			DisplayWidth:  displayWidth,
			DisplayHeight: displayHeight,
		},
	}
}

// NewVideo creates a mirrored live-view surface of the given display width.
func NewVideo(displayWidth float64) *Memory {
	return &Memory{
		kind: overlay.SurfaceVideo,
		ctx: overlay.RenderContext{
			Kind:         overlay.SurfaceVideo,
			DisplayWidth: displayWidth,
		},
	}
}

// Kind implements overlay.Surface.
func (m *Memory) Kind() overlay.SurfaceKind {
	return m.kind
}

// RenderContext implements overlay.Surface.
func (m *Memory) RenderContext() (overlay.RenderContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctx, nil
}

// ReplaceOverlays implements overlay.Surface.
func (m *Memory) ReplaceOverlays(elems []overlay.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elems = append([]overlay.Element(nil), elems...)
}

// Overlays implements overlay.Surface.
func (m *Memory) Overlays() []overlay.Element {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]overlay.Element(nil), m.elems...)
}

// Resize sets the size of the container around the visual.
func (m *Memory) Resize(width, height float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.width = width
	m.height = height
}

// Size returns the container size set by Resize.
func (m *Memory) Size() (width, height float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.width, m.height
}
