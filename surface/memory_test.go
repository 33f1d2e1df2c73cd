package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-overlay/overlay"
)

func TestMemoryReplaceOverlays(t *testing.T) {
	m := NewImage(400, 200, 200, 100)
	assert.Equal(t, overlay.SurfaceImage, m.Kind())

	elems := []overlay.Element{{Kind: overlay.ElementBox, Category: "Dog"}}
	m.ReplaceOverlays(elems)
	elems[0].Category = "Cat"

	got := m.Overlays()
	require.Len(t, got, 1)
	assert.Equal(t, "Dog", got[0].Category, "surface keeps its own copy")

	m.ReplaceOverlays(nil)
	assert.Empty(t, m.Overlays())
}

func TestMemoryDimensions(t *testing.T) {
	m := NewImage(400, 200, 200, 100)

	ctx, err := m.RenderContext()
	require.NoError(t, err)
	assert.Equal(t, 200.0, ctx.NaturalHeight)
	assert.Equal(t, 100.0, ctx.DisplayHeight)

	m.Resize(100, 50)
	w, h := m.Size()
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 50.0, h)

	v := NewVideo(640)
	ctx, _ = v.RenderContext()
	assert.Equal(t, overlay.SurfaceVideo, ctx.Kind)
	assert.Equal(t, 640.0, ctx.DisplayWidth)
}
