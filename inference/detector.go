package inference

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-overlay/detection"
)

// Config configures an ONNXDetector.
type Config struct {
	Session      SessionConfig
	IoUThreshold float32
	Labels       []string
}

// ONNXDetector implements detection.Detector on an ONNX Runtime session.
//
// The detector is not ready until Load succeeds. It starts in IMAGE mode
// with the default score threshold; SetOptions switches mode and threshold.
// Inference calls are serialized since the session shares its tensors.
type ONNXDetector struct {
	cfg    Config
	logger *zap.Logger
	open   func(SessionConfig) (runner, error)

	mu        sync.RWMutex
	runner    runner
	options   detection.Options
	lastVideo int64

	run sync.Mutex
}

// NewONNXDetector creates a detector that is not ready until Load is called.
//
// Arguments:
//   - cfg: The session and postprocessing configuration.
//   - logger: The logger, nil for none.
//
// Returns:
//   - *ONNXDetector: The detector.
func NewONNXDetector(cfg Config, logger *zap.Logger) *ONNXDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Session.InputSize == 0 {
		cfg.Session.InputSize = 640
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = YOLOClasses
	}
	if cfg.Session.Classes == 0 {
		cfg.Session.Classes = len(cfg.Labels)
	}
	if cfg.IoUThreshold == 0 {
		cfg.IoUThreshold = 0.45
	}

	return &ONNXDetector{
		cfg:    cfg,
		logger: logger.Named("detector"),
		open: func(c SessionConfig) (runner, error) {
			return NewSession(c)
		},
		options: detection.Options{
			RunningMode:    detection.ModeImage,
			ScoreThreshold: detection.DefaultScoreThreshold,
		},
		lastVideo: -1,
	}
}

// Load creates the model session. The detector becomes ready on success.
func (d *ONNXDetector) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r, err := d.open(d.cfg.Session)
	if err != nil {
		return errors.Wrapf(err, "loading model %s", d.cfg.Session.ModelPath)
	}

	d.mu.Lock()
	old := d.runner
	d.runner = r
	d.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	d.logger.Info("model loaded",
		zap.String("model", d.cfg.Session.ModelPath),
		zap.Int("input_size", d.cfg.Session.InputSize),
		zap.Int("classes", d.cfg.Session.Classes),
	)
	return nil
}

// Close releases the session; the detector is no longer ready.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	r := d.runner
	d.runner = nil
	d.mu.Unlock()

	if r == nil {
		return nil
	}

	d.run.Lock()
	defer d.run.Unlock()
	return r.Close()
}

// Ready implements detection.Detector.
func (d *ONNXDetector) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.runner != nil
}

// RunningMode implements detection.Detector.
func (d *ONNXDetector) RunningMode() detection.RunningMode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.options.RunningMode
}

// SetOptions implements detection.Detector. Entering VIDEO mode resets the
// timestamp sequence.
func (d *ONNXDetector) SetOptions(ctx context.Context, opts detection.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.RunningMode != detection.ModeImage && opts.RunningMode != detection.ModeVideo {
		return errors.Errorf("unknown running mode %d", opts.RunningMode)
	}
	if opts.ScoreThreshold < 0 || opts.ScoreThreshold > 1 {
		return errors.Errorf("score threshold %.2f outside [0, 1]", opts.ScoreThreshold)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.runner == nil {
		return detection.ErrNotReady
	}
	if opts.RunningMode == detection.ModeVideo && d.options.RunningMode != detection.ModeVideo {
		d.lastVideo = -1
	}
	d.options = opts

	d.logger.Debug("options set",
		zap.Stringer("mode", opts.RunningMode),
		zap.Float64("score_threshold", opts.ScoreThreshold),
	)
	return nil
}

// Detect implements detection.Detector.
func (d *ONNXDetector) Detect(ctx context.Context, img image.Image) (detection.Result, error) {
	d.mu.RLock()
	r, opts := d.runner, d.options
	d.mu.RUnlock()

	if r == nil {
		return detection.Result{}, detection.ErrNotReady
	}
	if opts.RunningMode != detection.ModeImage {
		return detection.Result{}, errors.Wrap(detection.ErrModeMismatch, "detect requires IMAGE mode")
	}
	return d.infer(ctx, r, img, float32(opts.ScoreThreshold))
}

// DetectForVideo implements detection.Detector.
func (d *ONNXDetector) DetectForVideo(ctx context.Context, img image.Image, timestampMs int64) (detection.Result, error) {
	d.mu.Lock()
	r, opts := d.runner, d.options
	if r == nil {
		d.mu.Unlock()
		return detection.Result{}, detection.ErrNotReady
	}
	if opts.RunningMode != detection.ModeVideo {
		d.mu.Unlock()
		return detection.Result{}, errors.Wrap(detection.ErrModeMismatch, "detect for video requires VIDEO mode")
	}
	if timestampMs < d.lastVideo {
		last := d.lastVideo
		d.mu.Unlock()
		return detection.Result{}, errors.Wrapf(detection.ErrTimestampRegression, "timestamp %d after %d", timestampMs, last)
	}
	d.lastVideo = timestampMs
	d.mu.Unlock()

	return d.infer(ctx, r, img, float32(opts.ScoreThreshold))
}

func (d *ONNXDetector) infer(ctx context.Context, r runner, img image.Image, threshold float32) (detection.Result, error) {
	if err := ctx.Err(); err != nil {
		return detection.Result{}, err
	}

	d.run.Lock()
	defer d.run.Unlock()

	// Close may have released the session while this call waited.
	if !d.Ready() {
		return detection.Result{}, detection.ErrNotReady
	}

	size := d.cfg.Session.InputSize
	if err := PrepareInput(img, r.Input(), size); err != nil {
		return detection.Result{}, errors.Wrap(err, "failed to prepare input")
	}

	output, err := r.Run()
	if err != nil {
		return detection.Result{}, err
	}

	anchors := AnchorCount(size)
	if want := (4 + d.cfg.Session.Classes) * anchors; len(output) < want {
		return detection.Result{}, errors.Errorf("model output holds %d floats, needs %d", len(output), want)
	}

	bounds := img.Bounds()
	candidates := decodeOutput(output, d.cfg.Session.Classes, anchors, size, bounds.Dx(), bounds.Dy(), threshold)
	return toResult(suppress(candidates, d.cfg.IoUThreshold), d.cfg.Labels), nil
}
