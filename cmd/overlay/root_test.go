package main

import (
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-overlay/config"
)

func TestRootCommandSubcommands(t *testing.T) {
	cmd := rootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "image")
	assert.Contains(t, names, "live")
}

func TestInitializeThresholdFlag(t *testing.T) {
	a := &app{}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Float64VarP(&a.threshold, "threshold", "t", 0, "")

	require.NoError(t, cmd.Flags().Set("threshold", "0.55"))
	require.NoError(t, a.initialize(cmd))
	assert.Equal(t, 0.55, a.cfg.Detector.ScoreThreshold)

	threshold, err := a.newThreshold()
	require.NoError(t, err)
	assert.Equal(t, 0.55, threshold.Value())
}

func TestRootCommandRejectsThreshold(t *testing.T) {
	cmd := rootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--threshold", "1.5", "image", "missing.png"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestInitializeHideFlag(t *testing.T) {
	a := &app{}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringSliceVar(&a.hide, "hide", nil, "")

	require.NoError(t, cmd.Flags().Set("hide", "person,traffic light"))
	require.NoError(t, a.initialize(cmd))

	assert.Equal(t, []string{"person", "traffic light"}, a.cfg.Image.Hide)
	assert.Equal(t, []string{"person", "traffic light"}, a.cfg.Video.Hide)
}
