package overlay

// ElementKind distinguishes the two halves of a rendered detection.
type ElementKind int

const (
	// ElementBox is the highlight rectangle.
	ElementBox ElementKind = iota
	// ElementLabel is the category and score text.
	ElementLabel
)

// String returns the element kind name.
func (k ElementKind) String() string {
	if k == ElementLabel {
		return "label"
	}
	return "box"
}

// Element is one rendered overlay primitive. Elements belong to exactly one
// surface and one render pass; a new pass replaces all of them.
type Element struct {
	Kind ElementKind
	// Category is the display category name, kept as inspectable metadata.
	Category string
	// Score is the rounded score percentage, kept as inspectable metadata.
	Score int
	Rect  ScreenRect
	Color RGB
	// Text is set on labels only.
	Text string
}
