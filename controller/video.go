package controller

import (
	"context"
	"sync"
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

// VideoState is the lifecycle state of live detection.
type VideoState int

const (
	// VideoDisabled means no camera is open and no frame loop runs.
	VideoDisabled VideoState = iota
	// VideoEnabling means the mode switch or the camera request is pending.
	VideoEnabling
	// VideoEnabled means a session owns the camera and runs the frame loop.
	VideoEnabled
)

// String returns the lower case state name.
func (s VideoState) String() string {
	switch s {
	case VideoDisabled:
		return "disabled"
	case VideoEnabling:
		return "enabling"
	case VideoEnabled:
		return "enabled"
	}
	return "unknown"
}

// VideoSession is one enable/disable cycle of live detection. It is created
// by EnableVideo, owned by its frame loop, and torn down by DisableVideo.
type VideoSession struct {
	stream media.Stream
	cancel context.CancelFunc
	done   chan struct{}

	// Owned by the frame loop goroutine.
	lastSampledTime time.Duration
	lastTimestamp   int64
}

// Done is closed once the frame loop of the session exited.
func (s *VideoSession) Done() <-chan struct{} {
	return s.done
}

// VideoController runs per-frame detection against the live camera feed.
type VideoController struct {
	gate     *detection.Gate
	renderer *overlay.Renderer
	store    *overlay.CategoryStore
	camera   media.Camera
	player   *media.Player
	surface  overlay.Surface
	notifier Notifier
	logger   *zap.Logger
	clock    clock.Clock
	interval time.Duration
	stopWait time.Duration
	metrics  *metrics.Metrics
	profiler *profiler.Profiler

	mu      sync.Mutex
	state   VideoState
	session *VideoSession
}

// State returns the lifecycle state.
func (c *VideoController) State() VideoState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the running session, nil unless enabled.
func (c *VideoController) Session() *VideoSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// EnableVideo starts live detection: the detector is switched to VIDEO mode,
// the camera is opened and attached to the player, and the frame loop starts
// once the first frame data arrived.
//
// Enabling while the detector is not loaded, or without a player, is logged
// and ignored. A refused camera is reported through the notifier and leaves
// live detection disabled; neither case is an error. Enabling an enabled
// controller does nothing.
//
// Arguments:
//   - ctx: Bounds the mode switch and the camera request, not the session.
//
// Returns:
//   - error: A mode switch or camera failure other than a refusal.
func (c *VideoController) EnableVideo(ctx context.Context) error {
	if c.player == nil || c.camera == nil {
		c.logger.Warn("live detection unavailable without a camera and a player")
		return nil
	}
	if !c.gate.Detector().Ready() {
		c.logger.Info("detector not loaded yet, live detection not started")
		return nil
	}

	c.mu.Lock()
	if c.state != VideoDisabled {
		c.mu.Unlock()
		return nil
	}
	c.state = VideoEnabling
	c.mu.Unlock()

	release, err := c.gate.Acquire(ctx, detection.ModeVideo)
	if err != nil {
		c.setDisabled()
		if isNotReady(err) {
			c.logger.Info("detector not loaded yet, live detection not started")
			return nil
		}
		return errors.Wrap(err, "switching to VIDEO mode")
	}
	release()

	stream, err := c.camera.Open(ctx)
	if err != nil {
		c.setDisabled()
		if errors.Is(err, media.ErrPermissionDenied) {
			c.logger.Warn("camera access denied", zap.Error(err))
			c.notifier.Alert(CameraDeniedMessage)
			return nil
		}
		return errors.Wrap(err, "opening camera")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != VideoEnabling {
		// Disabled while the camera prompt was pending.
		stopTracks(stream)
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	session := &VideoSession{
		stream:          stream,
		cancel:          cancel,
		done:            make(chan struct{}),
		lastSampledTime: -1,
		lastTimestamp:   -1,
	}
	c.player.Attach(stream)
	c.session = session
	c.state = VideoEnabled

	go c.run(loopCtx, session)

	c.logger.Info("live detection enabled", zap.Duration("interval", c.interval))
	return nil
}

func (c *VideoController) setDisabled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == VideoEnabling {
		c.state = VideoDisabled
	}
}

// DisableVideo stops live detection: every track is stopped, the stream is
// detached from the player, the frame loop is cancelled and awaited, and the
// live view overlays and category set are cleared. It is safe to call at any
// time and any number of times.
//
// The frame loop exits once the in-flight detect call returns. A detector
// that ignores cancellation is waited for at most the stop timeout; the loop
// then finishes in the background and its result is never rendered.
func (c *VideoController) DisableVideo() {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.state = VideoDisabled
	c.mu.Unlock()

	if session != nil {
		session.cancel()
		stopTracks(session.stream)
		if c.player.Source() == session.stream {
			c.player.Detach()
		}
		timer := c.clock.Timer(c.stopWait)
		select {
		case <-session.done:
			timer.Stop()
			c.logger.Info("live detection disabled")
		case <-timer.C:
			c.logger.Warn("live detection disabled before the frame loop stopped",
				zap.Duration("timeout", c.stopWait))
		}
	}

	c.renderer.Clear(c.surface)
	c.store.Reset(overlay.SurfaceVideo)
}

func stopTracks(stream media.Stream) {
	for _, track := range stream.Tracks() {
		track.Stop()
	}
}

// run is the frame loop of one session. One iteration runs per display
// refresh; the next one is scheduled only after the previous one finished.
func (c *VideoController) run(ctx context.Context, s *VideoSession) {
	defer close(s.done)

	select {
	case <-ctx.Done():
		return
	case <-s.stream.Loaded():
	}

	for {
		if ctx.Err() != nil {
			return
		}

		c.iterate(ctx, s)

		timer := c.clock.Timer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// iterate samples the current frame and, if playback advanced since the last
// sample, detects and renders it.
func (c *VideoController) iterate(ctx context.Context, s *VideoSession) {
	now := c.player.CurrentTime()
	if now < 0 {
		return
	}
	if now == s.lastSampledTime {
		c.metrics.RecordSkip()
		return
	}
	frame, ok := c.player.Frame()
	if !ok {
		return
	}

	// The frame counts as sampled once the detector accepted it, so a frame
	// dropped while the detector is not ready is retried.
	release, err := c.gate.Acquire(ctx, detection.ModeVideo)
	if err != nil {
		c.logFrameError(err)
		return
	}

	timestamp := c.clock.Now().UnixMilli()
	if timestamp < s.lastTimestamp {
		timestamp = s.lastTimestamp
	}
	s.lastTimestamp = timestamp

	done := c.profiler.StartOperation(profiler.OperationDetectVideo)
	start := c.clock.Now()
	result, err := c.gate.Detector().DetectForVideo(ctx, frame.Image, timestamp)
	c.metrics.ObserveDetect(detection.ModeVideo.String(), c.clock.Since(start).Seconds())
	done()
	release()

	if err != nil {
		if !isNotReady(err) {
			s.lastSampledTime = frame.Time
		}
		c.logFrameError(err)
		return
	}
	s.lastSampledTime = frame.Time
	c.metrics.RecordFrame(detection.ModeVideo.String())

	c.render(s, result)
}

// logFrameError logs a failed frame. A detector that is not loaded is only
// traced: the loop keeps polling and recovers once it is ready.
func (c *VideoController) logFrameError(err error) {
	switch {
	case isNotReady(err):
		c.logger.Debug("detector not ready, frame skipped")
	case errors.Is(err, context.Canceled):
	default:
		c.logger.Warn("video frame detection failed", zap.Error(err))
	}
}

func (c *VideoController) render(s *VideoSession, result detection.Result) {
	defer c.profiler.StartOperation(profiler.OperationRender)()

	c.mu.Lock()
	defer c.mu.Unlock()

	// A result finishing after disable must not repaint the live view.
	if c.session != s {
		return
	}

	seen, err := c.renderer.Render(result, c.surface)
	if err != nil {
		c.metrics.RecordRenderError(overlay.SurfaceVideo.String())
		c.logger.Warn("live overlay not rendered", zap.Error(err))
		return
	}
	c.store.Set(overlay.SurfaceVideo, seen)
	if c.metrics != nil {
		countDetections(c.surface.Overlays(), c.metrics.RecordDetection)
	}
}
