package controller

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-overlay/detection"
	"github.com/nvr-ai/go-overlay/media"
	"github.com/nvr-ai/go-overlay/metrics"
	"github.com/nvr-ai/go-overlay/overlay"
	"github.com/nvr-ai/go-overlay/profiler"
)

const (
	// DefaultRefreshRate is the frame loop rate when none is configured.
	DefaultRefreshRate = 60.0
	// DefaultStopTimeout bounds how long DisableVideo waits for the frame loop.
	DefaultStopTimeout = 5 * time.Second
)

// EngineOptions holds the dependencies of an Engine. Detector is required.
type EngineOptions struct {
	// Detector is the shared object detector.
	Detector detection.Detector
	// Threshold is the user selected score threshold, read at every mode switch.
	Threshold *detection.Threshold
	// Camera and Player back live detection; without them EnableVideo is a no-op.
	Camera media.Camera
	Player *media.Player
	// LiveView receives the live detection overlays.
	LiveView overlay.Surface
	// Notifier shows alerts, the logger is used when nil.
	Notifier Notifier
	Logger   *zap.Logger
	Clock    clock.Clock
	// RefreshRate is the frame loop rate in Hz.
	RefreshRate float64
	// StopTimeout bounds how long DisableVideo waits for an in-flight detect.
	StopTimeout time.Duration
	Metrics     *metrics.Metrics
	Profiler    *profiler.Profiler
}

// Engine owns one image and one video controller sharing a detector, the
// score threshold and the per-surface category sets.
type Engine struct {
	threshold *detection.Threshold
	store     *overlay.CategoryStore
	gate      *detection.Gate
	image     *ImageController
	video     *VideoController
}

// NewEngine creates an engine.
//
// Arguments:
//   - opts: The dependencies of the engine.
//
// Returns:
//   - *Engine: The engine, with live detection disabled.
//   - error: An error if a required dependency is missing.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Detector == nil {
		return nil, errors.New("engine requires a detector")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = DefaultRefreshRate
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.Threshold == nil {
		opts.Threshold = detection.NewThreshold(detection.DefaultScoreThreshold)
	}
	if opts.Notifier == nil {
		opts.Notifier = logNotifier{logger: opts.Logger.Named("notifier")}
	}

	logger := opts.Logger.Named("engine")
	gate := detection.NewGate(opts.Detector, opts.Threshold, detection.WithSwitchHook(func(o detection.Options) {
		opts.Metrics.RecordModeSwitch(o.RunningMode.String())
		logger.Debug("detector mode switched",
			zap.Stringer("mode", o.RunningMode),
			zap.Float64("score_threshold", o.ScoreThreshold),
		)
	}))

	renderer := overlay.NewRenderer()
	store := overlay.NewCategoryStore()

	return &Engine{
		threshold: opts.Threshold,
		store:     store,
		gate:      gate,
		image: newImageController(gate, renderer, store,
			logger.Named("image"), opts.Clock, opts.Metrics, opts.Profiler),
		video: &VideoController{
			gate:     gate,
			renderer: renderer,
			store:    store,
			camera:   opts.Camera,
			player:   opts.Player,
			surface:  opts.LiveView,
			notifier: opts.Notifier,
			logger:   logger.Named("video"),
			clock:    opts.Clock,
			interval: time.Duration(float64(time.Second) / opts.RefreshRate),
			stopWait: opts.StopTimeout,
			metrics:  opts.Metrics,
			profiler: opts.Profiler,
		},
	}, nil
}

// EnableVideo starts live detection. See VideoController.EnableVideo.
func (e *Engine) EnableVideo(ctx context.Context) error {
	return e.video.EnableVideo(ctx)
}

// DisableVideo stops live detection. See VideoController.DisableVideo.
func (e *Engine) DisableVideo() {
	e.video.DisableVideo()
}

// VideoState returns the live detection state.
func (e *Engine) VideoState() VideoState {
	return e.video.State()
}

// RequestImageDetection detects and draws objects on a static image. See
// ImageController.RequestImageDetection.
func (e *Engine) RequestImageDetection(ctx context.Context, target ImageTarget) error {
	return e.image.RequestImageDetection(ctx, target)
}

// ClearImageOverlays removes the overlays of the active image.
func (e *Engine) ClearImageOverlays() {
	e.image.ClearImageOverlays()
}

// Categories returns the categories seen in the latest render pass of the
// surface kind.
func (e *Engine) Categories(kind overlay.SurfaceKind) overlay.CategorySet {
	return e.store.Get(kind)
}

// Threshold returns the score threshold shared with the UI.
func (e *Engine) Threshold() *detection.Threshold {
	return e.threshold
}

// Video returns the video controller.
func (e *Engine) Video() *VideoController {
	return e.video
}

// Close disables live detection.
func (e *Engine) Close() {
	e.video.DisableVideo()
}
