package main

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-overlay/controller"
	"github.com/nvr-ai/go-overlay/media"
	"github.com/nvr-ai/go-overlay/media/capture"
	"github.com/nvr-ai/go-overlay/metrics"
	"github.com/nvr-ai/go-overlay/overlay"
	"github.com/nvr-ai/go-overlay/profiler"
	"github.com/nvr-ai/go-overlay/surface"
)

const (
	keyEscape = 27
	keyQuit   = 'q'

	shutdownTimeout = 5 * time.Second
)

func liveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Run detection on the camera and show the annotated preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("source") {
				source, _ := cmd.Flags().GetString("source")
				a.cfg.Video.Source = source
			}
			return a.runLive(cmd.Context())
		},
	}

	cmd.Flags().StringP("source", "s", "", "Camera index, file or stream URL, overrides the config")
	return cmd
}

func (a *app) runLive(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector := a.newDetector()
	if err := detector.Load(ctx); err != nil {
		return err
	}
	defer detector.Close()

	threshold, err := a.newThreshold()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	var m *metrics.Metrics
	if a.cfg.Metrics.Enabled {
		if m, err = metrics.New(registry); err != nil {
			return err
		}
	}

	var prof *profiler.Profiler
	if a.cfg.Profiler.Enabled {
		prof = profiler.New(profiler.Options{
			ReportInterval: a.cfg.Profiler.ReportInterval,
			Logger:         a.logger,
		})
		prof.Start(ctx)
		defer prof.Stop()
	}

	player := media.NewPlayer()
	live := surface.NewLive(player)

	engine, err := controller.NewEngine(controller.EngineOptions{
		Detector:  detector,
		Threshold: threshold,
		Camera: &capture.Device{
			Source: a.cfg.Video.Source,
			Logger: a.logger.Named("capture"),
		},
		Player:   player,
		LiveView: live,
		Notifier: controller.NotifierFunc(func(message string) {
			fmt.Fprintln(os.Stderr, message)
		}),
		Logger:      a.logger,
		RefreshRate: a.cfg.Video.RefreshRate,
		Metrics:     m,
		Profiler:    prof,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.EnableVideo(ctx); err != nil {
		return err
	}
	if engine.VideoState() == controller.VideoDisabled {
		return errors.New("live detection could not be started")
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.Metrics.Enabled {
		serveMetrics(gctx, g, a.cfg.Metrics.Addr, registry, a.logger)
	}

	if a.cfg.Video.Window {
		a.preview(gctx, stop, player, live, overlay.NewFilter(a.cfg.Video.Hide...))
	} else {
		<-gctx.Done()
	}
	stop()

	engine.DisableVideo()
	return g.Wait()
}

// serveMetrics exposes the registry on addr until ctx is done.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, registry *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "metrics server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

// preview shows the mirrored camera with its overlays until ctx is done or
// the user quits. It runs on the calling goroutine, as the window requires.
func (a *app) preview(ctx context.Context, quit func(), player *media.Player, live *surface.Live, filter overlay.Filter) {
	window := capture.NewWindow("overlay")
	defer window.Close()

	ticker := time.NewTicker(a.cfg.Video.FrameInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, ok := player.Frame()
		if !ok {
			continue
		}

		key, err := window.Show(composePreview(frame, live.Overlays(), filter))
		if err != nil {
			a.logger.Warn("preview frame dropped", zap.Error(err))
			continue
		}
		if key == keyEscape || key == keyQuit {
			a.logger.Info("preview closed")
			quit()
			return
		}
	}
}

// composePreview draws the visible live overlays over the mirrored frame.
func composePreview(frame media.Frame, elements []overlay.Element, filter overlay.Filter) image.Image {
	return surface.Compose(frame.Image, filter.Visible(elements), surface.ComposeOptions{Mirror: true})
}
