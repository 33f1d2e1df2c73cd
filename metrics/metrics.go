// Package metrics - Prometheus collectors for the detection engine.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the Prometheus metrics recorded by the detection engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FramesProcessed *prometheus.CounterVec
	FramesSkipped   prometheus.Counter
	Detections      *prometheus.CounterVec
	ModeSwitches    *prometheus.CounterVec
	DetectDuration  *prometheus.HistogramVec
	RenderErrors    *prometheus.CounterVec
}

// New creates the engine metrics and registers them on registry.
//
// Arguments:
//   - registry: The registry to register the collectors on.
//
// Returns:
//   - *Metrics: The registered metrics.
//   - error: An error if any collector fails to register.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		FramesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_frames_processed_total",
			Help: "Total number of images and video frames sent to the detector.",
		}, []string{"mode"}),
		FramesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overlay_frames_skipped_total",
			Help: "Total number of frame loop iterations skipped because the frame time did not advance.",
		}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_detections_total",
			Help: "Total number of rendered detections by category.",
		}, []string{"category"}),
		ModeSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_mode_switches_total",
			Help: "Total number of detector running mode switches by target mode.",
		}, []string{"mode"}),
		DetectDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "overlay_detect_duration_seconds",
			Help:    "Duration of detector calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"mode"}),
		RenderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_render_errors_total",
			Help: "Total number of failed render passes by surface.",
		}, []string{"surface"}),
	}

	for _, c := range []prometheus.Collector{
		m.FramesProcessed, m.FramesSkipped, m.Detections,
		m.ModeSwitches, m.DetectDuration, m.RenderErrors,
	} {
		if err := registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register overlay metrics")
		}
	}
	return m, nil
}

// RecordFrame counts one frame sent to the detector in mode.
func (m *Metrics) RecordFrame(mode string) {
	if m == nil {
		return
	}
	m.FramesProcessed.WithLabelValues(mode).Inc()
}

// RecordSkip counts one frame loop iteration without a new frame.
func (m *Metrics) RecordSkip() {
	if m == nil {
		return
	}
	m.FramesSkipped.Inc()
}

// RecordDetection counts one rendered detection of category.
func (m *Metrics) RecordDetection(category string) {
	if m == nil {
		return
	}
	m.Detections.WithLabelValues(category).Inc()
}

// RecordModeSwitch counts one detector switch into mode.
func (m *Metrics) RecordModeSwitch(mode string) {
	if m == nil {
		return
	}
	m.ModeSwitches.WithLabelValues(mode).Inc()
}

// ObserveDetect records the duration of a detector call in seconds.
func (m *Metrics) ObserveDetect(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.DetectDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordRenderError counts one failed render pass on surface.
func (m *Metrics) RecordRenderError(surface string) {
	if m == nil {
		return
	}
	m.RenderErrors.WithLabelValues(surface).Inc()
}
