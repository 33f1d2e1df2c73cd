package main

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-overlay/controller"
	"github.com/nvr-ai/go-overlay/images"
	"github.com/nvr-ai/go-overlay/overlay"
	"github.com/nvr-ai/go-overlay/surface"
	"github.com/nvr-ai/go-overlay/util"
)

func imageCommand(a *app) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "image [file|directory]",
		Short: "Detect objects in still images and write annotated copies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				outputDir = a.cfg.Image.OutputDir
			}
			return a.runImages(cmd.Context(), args[0], outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for annotated images")
	return cmd
}

// picture is a decoded still image shown at a bounded display size.
type picture struct {
	img       image.Image
	natural   image.Point
	display   image.Point
	container *surface.Memory
}

func newPicture(img image.Image, maxWidth, maxHeight int) *picture {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	dw, dh := images.FitSize(w, h, maxWidth, maxHeight)
	return &picture{
		img:       img,
		natural:   image.Pt(w, h),
		display:   image.Pt(dw, dh),
		container: surface.NewImage(float64(w), float64(h), float64(dw), float64(dh)),
	}
}

func (p *picture) Image() image.Image {
	return p.img
}

func (p *picture) NaturalSize() (float64, float64) {
	return float64(p.natural.X), float64(p.natural.Y)
}

func (p *picture) DisplaySize() (float64, float64) {
	return float64(p.display.X), float64(p.display.Y)
}

func (p *picture) Container() controller.ImageContainer {
	return p.container
}

// annotateOptions bounds the display size and hides categories.
type annotateOptions struct {
	MaxWidth  int
	MaxHeight int
	Filter    overlay.Filter
}

// annotation is one composed picture.
type annotation struct {
	Image image.Image
	// Elements are the drawn elements, hidden categories removed.
	Elements []overlay.Element
	// Categories holds every detected category, hidden ones included.
	Categories overlay.CategorySet
}

// annotate runs detection on img and composes the visible overlays at
// display size.
func annotate(ctx context.Context, engine *controller.Engine, img image.Image, opts annotateOptions) (*annotation, error) {
	p := newPicture(img, opts.MaxWidth, opts.MaxHeight)
	if err := engine.RequestImageDetection(ctx, p); err != nil {
		return nil, err
	}

	elements := opts.Filter.Visible(p.container.Overlays())
	out := surface.Compose(img, elements, surface.ComposeOptions{
		Width:  p.display.X,
		Height: p.display.Y,
	})
	return &annotation{
		Image:      out,
		Elements:   elements,
		Categories: engine.Categories(overlay.SurfaceImage),
	}, nil
}

func (a *app) runImages(ctx context.Context, input, outputDir string) error {
	files, err := collectImages(input)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Errorf("no images found in %s", input)
	}

	detector := a.newDetector()
	if err := detector.Load(ctx); err != nil {
		return err
	}
	defer detector.Close()

	threshold, err := a.newThreshold()
	if err != nil {
		return err
	}

	engine, err := controller.NewEngine(controller.EngineOptions{
		Detector:  detector,
		Threshold: threshold,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", outputDir)
	}

	opts := annotateOptions{
		MaxWidth:  a.cfg.Image.MaxWidth,
		MaxHeight: a.cfg.Image.MaxHeight,
		Filter:    overlay.NewFilter(a.cfg.Image.Hide...),
	}

	for _, f := range files {
		img, _, err := images.Decode(f.Data)
		if err != nil {
			a.logger.Warn("skipping image", zap.String("path", f.Path), zap.Error(err))
			continue
		}

		result, err := annotate(ctx, engine, img, opts)
		if err != nil {
			return errors.Wrapf(err, "annotating %s", f.Path)
		}

		dst := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))+".png")
		if err := writePNG(dst, result.Image); err != nil {
			return err
		}

		a.logger.Info("annotated",
			zap.String("source", f.Path),
			zap.String("output", dst),
			zap.Strings("categories", result.Categories.Names()),
		)
	}
	return nil
}

// collectImages returns the image at path, or every image in the directory.
func collectImages(path string) ([]util.ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if info.IsDir() {
		return util.LoadDirectoryImageFiles(path)
	}

	format, ok := images.FormatFromPath(path)
	if !ok {
		return nil, errors.Wrapf(images.ErrUnsupportedFormat, "%s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return []util.ImageFile{{Path: path, Data: data, Format: format, Frame: -1}}, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encoding %s", path)
	}
	return f.Close()
}
