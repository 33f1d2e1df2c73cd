package surface

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-overlay/media"
	"github.com/nvr-ai/go-overlay/media/mediatest"
	"github.com/nvr-ai/go-overlay/overlay"
)

func TestLiveFollowsPlayer(t *testing.T) {
	player := media.NewPlayer()
	live := NewLive(player)
	assert.Equal(t, overlay.SurfaceVideo, live.Kind())

	_, err := live.RenderContext()
	assert.True(t, errors.Is(err, overlay.ErrInvalidDimension))

	stream := mediatest.NewStream()
	stream.PushImage(image.NewRGBA(image.Rect(0, 0, 640, 480)), 0)
	player.Attach(stream)

	ctx, err := live.RenderContext()
	require.NoError(t, err)
	assert.Equal(t, 640.0, ctx.DisplayWidth)
	assert.Equal(t, overlay.SurfaceVideo, ctx.Kind)
}
