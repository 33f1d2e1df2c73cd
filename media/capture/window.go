package capture

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Window shows composited frames in a native preview window.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a preview window titled name.
func NewWindow(name string) *Window {
	return &Window{window: gocv.NewWindow(name)}
}

// Show displays img and pumps window events for one millisecond.
//
// Arguments:
//   - img: The frame to show.
//
// Returns:
//   - int: The key pressed while pumping events, -1 if none.
//   - error: An error if the frame cannot be converted.
func (w *Window) Show(img image.Image) (int, error) {
	rgba, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return -1, errors.Wrap(err, "converting frame")
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	w.window.IMShow(bgr)
	return w.window.WaitKey(1), nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
