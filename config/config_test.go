package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Mode)
	assert.Equal(t, "0", cfg.Video.Source)
	assert.Equal(t, 640, cfg.Detector.InputSize)
	assert.InDelta(t, 0.30, cfg.Detector.ScoreThreshold, 1e-9)
	assert.InDelta(t, 0.45, cfg.Detector.IoUThreshold, 1e-6)
	assert.Equal(t, 10*time.Second, cfg.Profiler.ReportInterval)
	assert.Equal(t, "cpu", cfg.Detector.Provider)
	assert.Equal(t, 1280, cfg.Image.MaxWidth)
	assert.Equal(t, time.Second/60, cfg.Video.FrameInterval())
	assert.Empty(t, cfg.Image.Hide)
	assert.Empty(t, cfg.Video.Hide)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  mode: release
detector:
  model_path: /models/detector.onnx
  score_threshold: 0.5
video:
  refresh_rate: 30
  hide: [person]
image:
  hide:
    - traffic light
    - dog
`), 0o600))

	t.Setenv("OVERLAY_VIDEO_SOURCE", "/dev/video2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Log.Mode)
	assert.Equal(t, "/models/detector.onnx", cfg.Detector.ModelPath)
	assert.InDelta(t, 0.5, cfg.Detector.ScoreThreshold, 1e-9)
	assert.Equal(t, "/dev/video2", cfg.Video.Source)
	assert.Equal(t, time.Second/30, cfg.Video.FrameInterval())
	assert.Equal(t, []string{"person"}, cfg.Video.Hide)
	assert.Equal(t, []string{"traffic light", "dog"}, cfg.Image.Hide)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Detector.ModelPath = "" }},
		{"zero input", func(c *Config) { c.Detector.InputSize = 0 }},
		{"threshold low", func(c *Config) { c.Detector.ScoreThreshold = 0 }},
		{"threshold high", func(c *Config) { c.Detector.ScoreThreshold = 1.5 }},
		{"iou", func(c *Config) { c.Detector.IoUThreshold = 0 }},
		{"refresh", func(c *Config) { c.Video.RefreshRate = 0 }},
		{"image bounds", func(c *Config) { c.Image.MaxWidth = -1 }},
		{"profiler", func(c *Config) { c.Profiler.Enabled = true; c.Profiler.ReportInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}
