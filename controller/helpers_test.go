package controller_test

import (
	"image"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nvr-ai/go-overlay/controller"
	"github.com/nvr-ai/go-overlay/detection"
	"github.com/nvr-ai/go-overlay/detection/detectiontest"
	"github.com/nvr-ai/go-overlay/media"
	"github.com/nvr-ai/go-overlay/media/mediatest"
	"github.com/nvr-ai/go-overlay/metrics"
	"github.com/nvr-ai/go-overlay/surface"
)

const refreshRate = 50.0

var frameInterval = time.Second / 50

// twoDetections holds a dog and a traffic light.
var twoDetections = detection.Result{Detections: []detection.Detection{
	{
		Box:        detection.BoundingBox{OriginX: 100, OriginY: 20, Width: 50, Height: 40},
		Categories: []detection.Category{{Name: "dog", Score: 0.9}},
	},
	{
		Box:        detection.BoundingBox{OriginX: 10, OriginY: 10, Width: 20, Height: 30},
		Categories: []detection.Category{{Name: "traffic light", Score: 0.456}},
	},
}}

var oneDetection = detection.Result{Detections: twoDetections.Detections[:1]}

type alerts struct {
	mu       sync.Mutex
	messages []string
}

func (a *alerts) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *alerts) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type harness struct {
	engine   *controller.Engine
	detector *detectiontest.Detector
	camera   *mediatest.Camera
	stream   *mediatest.Stream
	player   *media.Player
	live     *surface.Memory
	clock    *clock.Mock
	alerts   *alerts
	logs     *observer.ObservedLogs
}

type harnessOption func(*controller.EngineOptions)

func withMetrics(m *metrics.Metrics) harnessOption {
	return func(o *controller.EngineOptions) { o.Metrics = m }
}

func withStopTimeout(d time.Duration) harnessOption {
	return func(o *controller.EngineOptions) { o.StopTimeout = d }
}

func newHarness(t *testing.T, mode detection.RunningMode, opts ...harnessOption) *harness {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{
		detector: detectiontest.NewDetector(mode),
		stream:   mediatest.NewStream(),
		player:   media.NewPlayer(),
		live:     surface.NewVideo(640),
		clock:    clock.NewMock(),
		alerts:   &alerts{},
		logs:     logs,
	}
	h.camera = mediatest.NewCamera(h.stream)

	options := controller.EngineOptions{
		Detector:    h.detector,
		Camera:      h.camera,
		Player:      h.player,
		LiveView:    h.live,
		Notifier:    h.alerts,
		Logger:      zap.New(core),
		Clock:       h.clock,
		RefreshRate: refreshRate,
	}
	for _, opt := range opts {
		opt(&options)
	}

	engine, err := controller.NewEngine(options)
	require.NoError(t, err)
	h.engine = engine
	t.Cleanup(engine.Close)
	return h
}

// tick advances the mock clock by one frame interval.
func (h *harness) tick() {
	h.clock.Add(frameInterval)
}

// target is a displayed image backed by a memory container.
type target struct {
	img       image.Image
	natW      float64
	natH      float64
	dispW     float64
	dispH     float64
	container controller.ImageContainer
}

func newTarget() *target {
	return &target{
		img:       image.NewRGBA(image.Rect(0, 0, 400, 200)),
		natW:      400,
		natH:      200,
		dispW:     200,
		dispH:     100,
		container: surface.NewImage(400, 200, 200, 100),
	}
}

func (t *target) Image() image.Image { return t.img }
func (t *target) NaturalSize() (float64, float64) { return t.natW, t.natH }
func (t *target) DisplaySize() (float64, float64) { return t.dispW, t.dispH }
func (t *target) Container() controller.ImageContainer { return t.container }

func (t *target) memory() *surface.Memory {
	return t.container.(*surface.Memory)
}
