package controller_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-overlay/controller"
	"github.com/nvr-ai/go-overlay/detection"
	"github.com/nvr-ai/go-overlay/overlay"
)

const waitFor = 2 * time.Second

// enable turns live detection on and publishes the first frame.
func (h *harness) enable(t *testing.T) {
	t.Helper()
	require.NoError(t, h.engine.EnableVideo(context.Background()))
	require.Equal(t, controller.VideoEnabled, h.engine.VideoState())
	h.stream.Push(10 * time.Millisecond)
}

// waitVideoDetects advances the clock until n video detect calls happened.
func (h *harness) waitVideoDetects(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.tick()
		return h.detector.Count("video") >= n
	}, waitFor, time.Millisecond)
}

func TestEnableVideoRendersLiveOverlays(t *testing.T) {
	h := newHarness(t, detection.ModeImage)
	h.detector.SetVideoResult(twoDetections)

	h.enable(t)
	assert.Equal(t, "switch:VIDEO", h.detector.Events()[0])

	require.Eventually(t, func() bool {
		h.tick()
		return len(h.live.Overlays()) == 4
	}, waitFor, time.Millisecond)

	elems := h.live.Overlays()
	assert.Equal(t, overlay.ScreenRect{X: 490, Y: 20, Width: 50, Height: 40}, elems[0].Rect)
	assert.Equal(t, 40.0, elems[1].Rect.Width)
	assert.True(t, h.engine.Categories(overlay.SurfaceVideo).Equal(overlay.NewCategorySet("Dog", "Traffic_Light")))
	assert.Equal(t, h.stream, h.player.Source())
}

func TestDisableVideoIsIdempotent(t *testing.T) {
	h := newHarness(t, detection.ModeVideo)
	h.detector.SetVideoResult(oneDetection)
	h.enable(t)
	h.waitVideoDetects(t, 1)

	session := h.engine.Video().Session()
	require.NotNil(t, session)

	h.engine.DisableVideo()
	h.engine.DisableVideo()

	assert.Equal(t, controller.VideoDisabled, h.engine.VideoState())
	assert.Nil(t, h.engine.Video().Session())
	assert.Nil(t, h.player.Source())
	assert.True(t, h.stream.Stopped())
	assert.Empty(t, h.live.Overlays())
	assert.Empty(t, h.engine.Categories(overlay.SurfaceVideo))

	select {
	case <-session.Done():
	default:
		t.Fatal("frame loop still running after disable")
	}

	// No iteration runs once disabled.
	calls := h.detector.Count("video")
	h.stream.Push(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		h.tick()
	}
	assert.Equal(t, calls, h.detector.Count("video"))
}

func TestDisableVideoBoundsWaitForStuckDetector(t *testing.T) {
	h := newHarness(t, detection.ModeVideo, withStopTimeout(time.Second))
	h.detector.SetVideoResult(oneDetection)
	h.detector.IgnoreCancellation()
	h.enable(t)
	h.waitVideoDetects(t, 1)

	block := h.detector.BlockDetects()
	h.stream.Push(20 * time.Millisecond)
	h.waitVideoDetects(t, 2)
	session := h.engine.Video().Session()
	require.NotNil(t, session)

	disabled := make(chan struct{})
	go func() {
		h.engine.DisableVideo()
		close(disabled)
	}()

	require.Eventually(t, func() bool {
		h.clock.Add(100 * time.Millisecond)
		select {
		case <-disabled:
			return true
		default:
			return false
		}
	}, waitFor, time.Millisecond)

	assert.Equal(t, controller.VideoDisabled, h.engine.VideoState())
	assert.Empty(t, h.live.Overlays())
	assert.Equal(t, 1, h.logs.FilterMessage("live detection disabled before the frame loop stopped").Len())

	// The stuck call finishes later and its result is not rendered.
	close(block)
	select {
	case <-session.Done():
	case <-time.After(waitFor):
		t.Fatal("frame loop did not exit after the detect call returned")
	}
	assert.Empty(t, h.live.Overlays())
	assert.Empty(t, h.engine.Categories(overlay.SurfaceVideo))
}

func TestDisableVideoWithoutSession(t *testing.T) {
	h := newHarness(t, detection.ModeImage)

	assert.NotPanics(t, func() {
		h.engine.DisableVideo()
		h.engine.DisableVideo()
	})
	assert.Equal(t, controller.VideoDisabled, h.engine.VideoState())
	assert.Zero(t, h.camera.Opens())
}

func TestFrameLoopSkipsUnchangedFrames(t *testing.T) {
	h := newHarness(t, detection.ModeVideo)
	h.enable(t)
	h.waitVideoDetects(t, 1)

	for i := 0; i < 5; i++ {
		h.tick()
	}
	assert.Equal(t, 1, h.detector.Count("video"), "same frame time is sampled once")

	h.stream.Push(20 * time.Millisecond)
	h.waitVideoDetects(t, 2)

	h.stream.Push(30 * time.Millisecond)
	h.waitVideoDetects(t, 3)

	timestamps := h.detector.Timestamps()
	assert.True(t, sort.SliceIsSorted(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] }))
}

func TestFrameLoopRecoversWhenDetectorReady(t *testing.T) {
	h := newHarness(t, detection.ModeVideo)
	h.enable(t)
	h.waitVideoDetects(t, 1)

	h.detector.SetReady(false)
	h.stream.Push(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		h.tick()
	}
	assert.Equal(t, 1, h.detector.Count("video"))
	assert.Equal(t, controller.VideoEnabled, h.engine.VideoState(), "loop keeps running")

	h.detector.SetReady(true)
	h.stream.Push(30 * time.Millisecond)
	h.waitVideoDetects(t, 2)
}

func TestFrameLoopRetriesFrameSkippedWhileNotReady(t *testing.T) {
	h := newHarness(t, detection.ModeVideo)
	h.enable(t)
	h.waitVideoDetects(t, 1)

	h.detector.SetReady(false)
	h.stream.Push(20 * time.Millisecond)
	require.Eventually(t, func() bool {
		h.tick()
		return h.logs.FilterMessage("detector not ready, frame skipped").Len() > 0
	}, waitFor, time.Millisecond)

	// Playback stays on the same frame; it is detected once the detector is ready.
	h.detector.SetReady(true)
	h.waitVideoDetects(t, 2)

	for i := 0; i < 5; i++ {
		h.tick()
	}
	assert.Equal(t, 2, h.detector.Count("video"))
}

func TestEnableVideoPermissionDenied(t *testing.T) {
	h := newHarness(t, detection.ModeImage)
	h.camera.Deny()

	require.NoError(t, h.engine.EnableVideo(context.Background()))

	assert.Equal(t, []string{controller.CameraDeniedMessage}, h.alerts.Messages())
	assert.Equal(t, controller.VideoDisabled, h.engine.VideoState())
	assert.Nil(t, h.player.Source())
	assert.Nil(t, h.engine.Video().Session())
}

func TestEnableVideoDetectorNotLoaded(t *testing.T) {
	h := newHarness(t, detection.ModeImage)
	h.detector.SetReady(false)

	require.NoError(t, h.engine.EnableVideo(context.Background()))

	assert.Equal(t, controller.VideoDisabled, h.engine.VideoState())
	assert.Zero(t, h.camera.Opens())
	assert.Empty(t, h.detector.Events())
}

func TestEnableVideoTwiceKeepsOneSession(t *testing.T) {
	h := newHarness(t, detection.ModeVideo)
	h.enable(t)
	session := h.engine.Video().Session()

	require.NoError(t, h.engine.EnableVideo(context.Background()))
	assert.Same(t, session, h.engine.Video().Session())
	assert.Equal(t, 1, h.camera.Opens())
}

func TestDisableVideoDuringCameraPrompt(t *testing.T) {
	h := newHarness(t, detection.ModeVideo)
	prompt := h.camera.BlockOpen()

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.engine.EnableVideo(context.Background())
	}()

	require.Eventually(t, func() bool {
		return h.camera.Opens() == 1
	}, waitFor, time.Millisecond)
	assert.Equal(t, controller.VideoEnabling, h.engine.VideoState())

	h.engine.DisableVideo()
	close(prompt)

	require.NoError(t, <-errCh)
	assert.Equal(t, controller.VideoDisabled, h.engine.VideoState())
	assert.True(t, h.stream.Stopped(), "a stream granted after disable is released")
	assert.Nil(t, h.player.Source())
}

func TestThresholdSampledAtModeSwitch(t *testing.T) {
	h := newHarness(t, detection.ModeImage)
	require.NoError(t, h.engine.Threshold().Set(0.55))

	require.NoError(t, h.engine.EnableVideo(context.Background()))

	opts := h.detector.Options()
	require.Len(t, opts, 1)
	assert.Equal(t, detection.ModeVideo, opts[0].RunningMode)
	assert.InDelta(t, 0.55, opts[0].ScoreThreshold, 1e-9)
}

func TestImageRequestWhileVideoRuns(t *testing.T) {
	h := newHarness(t, detection.ModeImage)
	h.detector.SetImageResult(oneDetection)
	h.detector.SetVideoResult(twoDetections)
	h.enable(t)
	h.waitVideoDetects(t, 1)

	tg := newTarget()
	require.NoError(t, h.engine.RequestImageDetection(context.Background(), tg))
	assert.Len(t, tg.memory().Overlays(), 2)

	// The loop switches back to VIDEO for the next frame.
	h.stream.Push(20 * time.Millisecond)
	h.waitVideoDetects(t, 2)
	assert.Equal(t, 2, h.detector.Count("switch:VIDEO"))
	assert.Equal(t, 1, h.detector.Count("switch:IMAGE"))

	// Each surface keeps its own category set.
	assert.True(t, h.engine.Categories(overlay.SurfaceImage).Equal(overlay.NewCategorySet("Dog")))
	assert.True(t, h.engine.Categories(overlay.SurfaceVideo).Equal(overlay.NewCategorySet("Dog", "Traffic_Light")))
}

func TestVideoStateString(t *testing.T) {
	assert.Equal(t, "disabled", controller.VideoDisabled.String())
	assert.Equal(t, "enabling", controller.VideoEnabling.String())
	assert.Equal(t, "enabled", controller.VideoEnabled.String())
}
