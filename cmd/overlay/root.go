package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-overlay/config"
	"github.com/nvr-ai/go-overlay/detection"
	"github.com/nvr-ai/go-overlay/inference"
	"github.com/nvr-ai/go-overlay/logging"
)

// app carries the state shared by the subcommands.
type app struct {
	configPath string
	threshold  float64
	hide       []string

	cfg    *config.Config
	logger *zap.Logger
}

func rootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "overlay",
		Short:         "Draw object detections over images and live camera video",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Float64VarP(&a.threshold, "threshold", "t", 0, "Score threshold (0.01-1.00), overrides the config")
	rootCmd.PersistentFlags().StringSliceVar(&a.hide, "hide", nil, "Categories to leave out of the output, overrides the config")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.initialize(cmd)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		logging.Sync(a.logger)
	}

	rootCmd.AddCommand(imageCommand(a), liveCommand(a))
	return rootCmd
}

// initialize loads the configuration and builds the logger.
func (a *app) initialize(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Detector.ScoreThreshold = a.threshold
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("hide") {
		cfg.Image.Hide = a.hide
		cfg.Video.Hide = a.hide
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// newThreshold returns the configured score threshold holder.
func (a *app) newThreshold() (*detection.Threshold, error) {
	threshold := detection.NewThreshold(detection.DefaultScoreThreshold)
	if err := threshold.Set(a.cfg.Detector.ScoreThreshold); err != nil {
		return nil, err
	}
	return threshold, nil
}

// newDetector creates the ONNX detector described by the configuration.
func (a *app) newDetector() *inference.ONNXDetector {
	return inference.NewONNXDetector(inference.Config{
		Session: inference.SessionConfig{
			ModelPath:     a.cfg.Detector.ModelPath,
			SharedLibrary: a.cfg.Detector.SharedLibrary,
			Provider:      inference.ExecutionProvider(a.cfg.Detector.Provider),
			InputSize:     a.cfg.Detector.InputSize,
		},
		IoUThreshold: a.cfg.Detector.IoUThreshold,
	}, a.logger)
}
