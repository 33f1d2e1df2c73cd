package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryStoreReplacesSets(t *testing.T) {
	store := NewCategoryStore()
	assert.Equal(t, 0, store.Get(SurfaceImage).Len())

	store.Set(SurfaceImage, NewCategorySet("Dog", "Cat"))
	store.Set(SurfaceVideo, NewCategorySet("Person"))
	store.Set(SurfaceImage, NewCategorySet("Cat"))

	assert.True(t, store.Get(SurfaceImage).Equal(NewCategorySet("Cat")))
	assert.True(t, store.Get(SurfaceVideo).Equal(NewCategorySet("Person")))

	got := store.Get(SurfaceVideo)
	got.Add("Bird")
	assert.False(t, store.Get(SurfaceVideo).Has("Bird"), "returned sets are copies")

	store.Reset(SurfaceVideo)
	assert.Equal(t, 0, store.Get(SurfaceVideo).Len())
}

func TestFilterVisible(t *testing.T) {
	elems := []Element{
		{Kind: ElementBox, Category: "Dog"},
		{Kind: ElementLabel, Category: "Dog"},
		{Kind: ElementBox, Category: "Cat"},
		{Kind: ElementLabel, Category: "Cat"},
	}

	assert.Len(t, NewFilter().Visible(elems), 4)

	visible := NewFilter("Dog").Visible(elems)
	assert.Len(t, visible, 2)
	for _, e := range visible {
		assert.Equal(t, "Cat", e.Category)
	}
}

func TestFilterAcceptsRawNames(t *testing.T) {
	f := NewFilter("traffic light", "Dog", "")

	assert.True(t, f.Hidden("Traffic_Light"))
	assert.True(t, f.Hidden("Dog"))
	assert.False(t, f.Hidden("Cat"))
	assert.False(t, f.Hidden(""))
}
