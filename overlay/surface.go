package overlay

// Surface is a render target: a container of overlay elements plus the
// dimension query needed to place them.
type Surface interface {
	// Kind returns the coordinate convention of the surface.
	Kind() SurfaceKind
	// RenderContext reports the current dimensions of the visual.
	RenderContext() (RenderContext, error)
	// ReplaceOverlays atomically removes every overlay element of the surface
	// and installs elems in their place. A nil slice clears the surface.
	ReplaceOverlays(elems []Element)
	// Overlays returns a copy of the current overlay elements.
	Overlays() []Element
}
