package surface

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-overlay/media"
	"github.com/nvr-ai/go-overlay/overlay"
)

// Live is the overlay layer of the live view. Its display width follows the
// frames the player currently shows.
type Live struct {
	*Memory
	player *media.Player
}

// NewLive creates a live view surface over player.
func NewLive(player *media.Player) *Live {
	return &Live{Memory: NewVideo(0), player: player}
}

// RenderContext implements overlay.Surface.
func (l *Live) RenderContext() (overlay.RenderContext, error) {
	width := l.player.DisplayWidth()
	if width <= 0 {
		return overlay.RenderContext{}, errors.Wrap(overlay.ErrInvalidDimension, "live view has no frame")
	}
	return overlay.RenderContext{Kind: overlay.SurfaceVideo, DisplayWidth: float64(width)}, nil
}
