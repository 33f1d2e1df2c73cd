// Package config - Viper backed configuration for the overlay commands.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nvr-ai/go-overlay/detection"
)

// EnvPrefix prefixes environment overrides, e.g. OVERLAY_VIDEO_SOURCE.
const EnvPrefix = "OVERLAY"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Detector DetectorConfig `mapstructure:"detector"`
	Video    VideoConfig    `mapstructure:"video"`
	Image    ImageConfig    `mapstructure:"image"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Profiler ProfilerConfig `mapstructure:"profiler"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

type DetectorConfig struct {
	ModelPath      string  `mapstructure:"model_path"`
	SharedLibrary  string  `mapstructure:"shared_library"`
	Provider       string  `mapstructure:"provider"`
	InputSize      int     `mapstructure:"input_size"`
	ScoreThreshold float64 `mapstructure:"score_threshold"`
	IoUThreshold   float32 `mapstructure:"iou_threshold"`
}

type VideoConfig struct {
	Source      string  `mapstructure:"source"`
	RefreshRate float64 `mapstructure:"refresh_rate"`
	Window      bool    `mapstructure:"window"`
	// Hide lists categories left out of the preview, e.g. "traffic light".
	Hide []string `mapstructure:"hide"`
}

type ImageConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	MaxWidth  int    `mapstructure:"max_width"`
	MaxHeight int    `mapstructure:"max_height"`
	// Hide lists categories left out of the annotated images.
	Hide []string `mapstructure:"hide"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type ProfilerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ReportInterval time.Duration `mapstructure:"report_interval"`
}

// Load reads configuration from a YAML file and OVERLAY_ environment
// variables on top of the defaults.
//
// Arguments:
//   - configPath: Path to a YAML file, empty to use defaults and environment only.
//
// Returns:
//   - *Config: The validated configuration.
//   - error: An error if the file cannot be read or the result is invalid.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.mode", "debug")
	v.SetDefault("log.level", "")

	v.SetDefault("detector.model_path", "models/yolov8n.onnx")
	v.SetDefault("detector.shared_library", "")
	v.SetDefault("detector.provider", "cpu")
	v.SetDefault("detector.input_size", 640)
	v.SetDefault("detector.score_threshold", detection.DefaultScoreThreshold)
	v.SetDefault("detector.iou_threshold", 0.45)

	v.SetDefault("video.source", "0")
	v.SetDefault("video.refresh_rate", 60.0)
	v.SetDefault("video.window", true)
	v.SetDefault("video.hide", []string{})

	v.SetDefault("image.output_dir", "annotated")
	v.SetDefault("image.max_width", 1280)
	v.SetDefault("image.max_height", 720)
	v.SetDefault("image.hide", []string{})

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("profiler.enabled", false)
	v.SetDefault("profiler.report_interval", 10*time.Second)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Detector.ModelPath == "" {
		return errors.Wrap(ErrInvalidConfig, "detector.model_path is required")
	}
	if c.Detector.InputSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "detector.input_size must be positive, got %d", c.Detector.InputSize)
	}
	if c.Detector.ScoreThreshold < detection.MinScoreThreshold || c.Detector.ScoreThreshold > detection.MaxScoreThreshold {
		return errors.Wrapf(ErrInvalidConfig, "detector.score_threshold %.2f outside [%.2f, %.2f]",
			c.Detector.ScoreThreshold, detection.MinScoreThreshold, detection.MaxScoreThreshold)
	}
	if c.Detector.IoUThreshold <= 0 || c.Detector.IoUThreshold > 1 {
		return errors.Wrapf(ErrInvalidConfig, "detector.iou_threshold %.2f outside (0, 1]", c.Detector.IoUThreshold)
	}
	if c.Video.RefreshRate <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "video.refresh_rate must be positive, got %v", c.Video.RefreshRate)
	}
	if c.Image.MaxWidth < 0 || c.Image.MaxHeight < 0 {
		return errors.Wrap(ErrInvalidConfig, "image.max_width and image.max_height must not be negative")
	}
	if c.Profiler.Enabled && c.Profiler.ReportInterval <= 0 {
		return errors.Wrap(ErrInvalidConfig, "profiler.report_interval must be positive")
	}
	return nil
}

// FrameInterval is the frame loop period for the configured refresh rate.
func (c VideoConfig) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.RefreshRate)
}
