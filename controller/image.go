package controller

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-overlay/detection"
	"github.com/nvr-ai/go-overlay/metrics"
	"github.com/nvr-ai/go-overlay/overlay"
	"github.com/nvr-ai/go-overlay/profiler"
)

// ImageController runs single-shot detection on static images.
//
// Requests may overlap. Every request clears the overlays of its container up
// front, and only the newest request renders: a result arriving after a later
// request or a clear is dropped.
type ImageController struct {
	gate     *detection.Gate
	renderer *overlay.Renderer
	store    *overlay.CategoryStore
	logger   *zap.Logger
	clock    clock.Clock
	metrics  *metrics.Metrics
	profiler *profiler.Profiler

	mu        sync.Mutex
	seq       uint64
	container ImageContainer
}

func newImageController(gate *detection.Gate, renderer *overlay.Renderer, store *overlay.CategoryStore,
	logger *zap.Logger, clk clock.Clock, m *metrics.Metrics, p *profiler.Profiler,
) *ImageController {
	return &ImageController{
		gate:     gate,
		renderer: renderer,
		store:    store,
		logger:   logger,
		clock:    clk,
		metrics:  m,
		profiler: p,
	}
}

// RequestImageDetection detects objects in target and draws them into its
// container. It is invoked for every new image and again after a reflow.
//
// A missing target or container is logged and reported as
// ErrTargetUnavailable. If the detector is not loaded yet the overlays are
// cleared and the request ends without error.
//
// Arguments:
//   - ctx: Cancels waiting for the detector.
//   - target: The displayed image.
//
// Returns:
//   - error: ErrTargetUnavailable, a context error, or a detect or render failure.
func (c *ImageController) RequestImageDetection(ctx context.Context, target ImageTarget) error {
	if target == nil || target.Image() == nil {
		c.logger.Warn("image detection requested without an image")
		return ErrTargetUnavailable
	}
	container := target.Container()
	if container == nil {
		c.logger.Warn("image has no overlay container")
		return ErrTargetUnavailable
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.container = container
	c.renderer.Clear(container)
	c.mu.Unlock()

	if !c.gate.Detector().Ready() {
		c.logger.Debug("detector not loaded, image request dropped")
		return nil
	}

	release, err := c.gate.Acquire(ctx, detection.ModeImage)
	if err != nil {
		if isNotReady(err) {
			return nil
		}
		return errors.Wrap(err, "waiting for IMAGE mode")
	}

	done := c.profiler.StartOperation(profiler.OperationDetectImage)
	start := c.clock.Now()
	result, err := c.gate.Detector().Detect(ctx, target.Image())
	c.metrics.ObserveDetect(detection.ModeImage.String(), c.clock.Since(start).Seconds())
	done()
	release()

	if err != nil {
		if isNotReady(err) {
			return nil
		}
		c.logger.Warn("image detection failed", zap.Error(err))
		return errors.Wrap(err, "detecting image")
	}
	c.metrics.RecordFrame(detection.ModeImage.String())

	naturalWidth, naturalHeight := target.NaturalSize()
	displayWidth, displayHeight := target.DisplaySize()
	rc := overlay.RenderContext{
		Kind:          overlay.SurfaceImage,
		NaturalWidth:  naturalWidth,
		NaturalHeight: naturalHeight,
		DisplayWidth:  displayWidth,
		DisplayHeight: displayHeight,
	}

	return c.render(seq, container, result, rc)
}

func (c *ImageController) render(seq uint64, container ImageContainer, result detection.Result, rc overlay.RenderContext) error {
	defer c.profiler.StartOperation(profiler.OperationRender)()

	elems, seen, err := c.renderer.Elements(result, rc)
	if err != nil {
		c.metrics.RecordRenderError(overlay.SurfaceImage.String())
		c.logger.Warn("image overlay not rendered", zap.Error(err))
		return errors.Wrap(err, "rendering image overlays")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Debug("stale image result dropped", zap.Uint64("request", seq), zap.Uint64("latest", c.seq))
		return nil
	}

	container.ReplaceOverlays(elems)
	c.store.Set(overlay.SurfaceImage, seen)
	container.Resize(rc.DisplayWidth, rc.DisplayHeight)
	countDetections(elems, c.metrics.RecordDetection)

	c.logger.Debug("image overlays rendered",
		zap.Int("detections", len(elems)/2),
		zap.Strings("categories", seen.Names()),
	)
	return nil
}

// ClearImageOverlays removes the overlays of the active image container and
// empties the image category set.
func (c *ImageController) ClearImageOverlays() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	if c.container != nil {
		c.renderer.Clear(c.container)
	}
	c.store.Reset(overlay.SurfaceImage)
}
