// Package detectiontest - Scriptable detector fake for engine tests.
package detectiontest

import (
	"context"
	"image"
	"sync"

	"github.com/nvr-ai/go-overlay/detection"
)

// Detector is an in-memory detection.Detector that records every call.
type Detector struct {
	mu sync.Mutex

	ready bool
	mode  detection.RunningMode

	imageResult detection.Result
	videoResult detection.Result
	err         error

	// Blocking hooks. When set, the call waits for a receive on the channel
	// (or for the context) before completing.
	switchBlock  chan struct{}
	detectBlock  chan struct{}
	ignoreCancel bool

	options     []detection.Options
	events      []string
	timestamps  []int64
	videoCalled chan int64
}

// NewDetector creates a ready detector configured in mode.
func NewDetector(mode detection.RunningMode) *Detector {
	return &Detector{ready: true, mode: mode}
}

// SetReady toggles readiness.
func (d *Detector) SetReady(ready bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ready = ready
}

// SetImageResult sets the result returned by Detect.
func (d *Detector) SetImageResult(r detection.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.imageResult = r
}

// SetVideoResult sets the result returned by DetectForVideo.
func (d *Detector) SetVideoResult(r detection.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.videoResult = r
}

// SetError makes every detect call fail with err.
func (d *Detector) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// BlockSwitches makes SetOptions wait for a value on the returned channel.
func (d *Detector) BlockSwitches() chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.switchBlock = make(chan struct{})
	return d.switchBlock
}

// BlockDetects makes Detect and DetectForVideo wait for a value on the returned channel.
func (d *Detector) BlockDetects() chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detectBlock = make(chan struct{})
	return d.detectBlock
}

// IgnoreCancellation makes blocked detect calls ignore their context, like a
// detector stuck in native code.
func (d *Detector) IgnoreCancellation() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ignoreCancel = true
}

// NotifyVideo returns a channel receiving the timestamp of every DetectForVideo call.
func (d *Detector) NotifyVideo() <-chan int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.videoCalled = make(chan int64, 64)
	return d.videoCalled
}

// Ready implements detection.Detector.
func (d *Detector) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// RunningMode implements detection.Detector.
func (d *Detector) RunningMode() detection.RunningMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// SetOptions implements detection.Detector.
func (d *Detector) SetOptions(ctx context.Context, opts detection.Options) error {
	d.mu.Lock()
	d.options = append(d.options, opts)
	d.events = append(d.events, "switch:"+opts.RunningMode.String())
	block := d.switchBlock
	d.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.mu.Lock()
	d.mode = opts.RunningMode
	d.mu.Unlock()
	return nil
}

// Detect implements detection.Detector.
func (d *Detector) Detect(ctx context.Context, _ image.Image) (detection.Result, error) {
	d.mu.Lock()
	if !d.ready {
		d.mu.Unlock()
		return detection.Result{}, detection.ErrNotReady
	}
	if d.mode != detection.ModeImage {
		d.mu.Unlock()
		return detection.Result{}, detection.ErrModeMismatch
	}
	d.events = append(d.events, "detect")
	block := d.detectBlock
	d.mu.Unlock()

	if err := d.wait(ctx, block); err != nil {
		return detection.Result{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.imageResult, d.err
}

// DetectForVideo implements detection.Detector.
func (d *Detector) DetectForVideo(ctx context.Context, _ image.Image, timestampMs int64) (detection.Result, error) {
	d.mu.Lock()
	if !d.ready {
		d.mu.Unlock()
		return detection.Result{}, detection.ErrNotReady
	}
	if d.mode != detection.ModeVideo {
		d.mu.Unlock()
		return detection.Result{}, detection.ErrModeMismatch
	}
	if n := len(d.timestamps); n > 0 && timestampMs < d.timestamps[n-1] {
		d.mu.Unlock()
		return detection.Result{}, detection.ErrTimestampRegression
	}
	d.events = append(d.events, "video")
	d.timestamps = append(d.timestamps, timestampMs)
	block := d.detectBlock
	notify := d.videoCalled
	d.mu.Unlock()

	if err := d.wait(ctx, block); err != nil {
		return detection.Result{}, err
	}
	if notify != nil {
		select {
		case notify <- timestampMs:
		default:
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.videoResult, d.err
}

// Options returns every SetOptions call in order.
func (d *Detector) Options() []detection.Options {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]detection.Options(nil), d.options...)
}

// Events returns the ordered call log ("switch:IMAGE", "detect", "video").
func (d *Detector) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

// Timestamps returns the timestamps passed to DetectForVideo.
func (d *Detector) Timestamps() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int64(nil), d.timestamps...)
}

// Count returns how many times event was recorded.
func (d *Detector) Count(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e == event {
			n++
		}
	}
	return n
}

func (d *Detector) wait(ctx context.Context, block chan struct{}) error {
	if block == nil {
		return nil
	}
	d.mu.Lock()
	ignore := d.ignoreCancel
	d.mu.Unlock()
	if ignore {
		<-block
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
