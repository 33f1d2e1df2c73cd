package overlay

// Filter hides overlay elements by category, the way a category filter
// control toggles tagged detections without touching the render pass.
type Filter struct {
	hidden CategorySet
}

// NewFilter creates a filter hiding the given categories. Raw detector names
// ("traffic light") and display names ("Traffic_Light") are both accepted.
func NewFilter(hidden ...string) Filter {
	set := NewCategorySet()
	for _, name := range hidden {
		if name != "" {
			set.Add(CategoryLabel(name))
		}
	}
	return Filter{hidden: set}
}

// Hidden reports whether category is filtered out.
func (f Filter) Hidden(category string) bool {
	return f.hidden.Has(category)
}

// Visible returns the elements whose category is not hidden, in order.
func (f Filter) Visible(elems []Element) []Element {
	if f.hidden.Len() == 0 {
		return elems
	}
	out := make([]Element, 0, len(elems))
	for _, e := range elems {
		if !f.Hidden(e.Category) {
			out = append(out, e)
		}
	}
	return out
}
