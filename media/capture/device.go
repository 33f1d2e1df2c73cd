// Package capture - OpenCV backed camera for the live view.
package capture

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-overlay/media"
)

// Device is a camera backed by an OpenCV capture device. Source is either a
// device index ("0") or a path or URL understood by OpenCV.
type Device struct {
	Source string
	Logger *zap.Logger
	Clock  clock.Clock
}

// Open implements media.Camera. The capture is read on its own goroutine until the
// video track is stopped.
func (d *Device) Open(ctx context.Context) (media.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.New()
	}

	var source interface{} = d.Source
	if id, err := strconv.Atoi(d.Source); err == nil {
		source = id
	}

	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, errors.Wrapf(media.ErrPermissionDenied, "opening %q: %v", d.Source, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, errors.Wrapf(media.ErrPermissionDenied, "opening %q", d.Source)
	}

	s := &captureStream{
		capture: capture,
		logger:  logger.With(zap.String("source", d.Source)),
		clock:   clk,
		start:   clk.Now(),
		loaded:  make(chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.track = &captureTrack{id: fmt.Sprintf("video:%s", d.Source), stream: s}
	go s.run()

	logger.Info("camera opened", zap.String("source", d.Source))
	return s, nil
}

type captureStream struct {
	capture *gocv.VideoCapture
	logger  *zap.Logger
	clock   clock.Clock
	start   time.Time
	track   *captureTrack

	mu     sync.RWMutex
	latest media.Frame
	has    bool

	loaded     chan struct{}
	loadedOnce sync.Once
	stop       chan struct{}
	stopOnce   sync.Once
	done       chan struct{}
}

func (s *captureStream) Tracks() []media.Track {
	return []media.Track{s.track}
}

func (s *captureStream) Latest() (media.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.has
}

func (s *captureStream) Loaded() <-chan struct{} {
	return s.loaded
}

func (s *captureStream) run() {
	defer close(s.done)

	mat := gocv.NewMat()
	defer mat.Close()

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if ok := s.capture.Read(&mat); !ok {
			s.logger.Info("capture ended")
			return
		}
		if mat.Empty() {
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			s.logger.Warn("frame conversion failed", zap.Error(err))
			continue
		}

		s.mu.Lock()
		s.latest = media.Frame{Image: img, Time: s.clock.Since(s.start)}
		s.has = true
		s.mu.Unlock()

		s.loadedOnce.Do(func() { close(s.loaded) })
	}
}

func (s *captureStream) shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		if err := s.capture.Close(); err != nil {
			s.logger.Warn("closing capture", zap.Error(err))
		}
		s.logger.Info("camera released")
	})
}

type captureTrack struct {
	id     string
	stream *captureStream
}

func (t *captureTrack) ID() string {
	return t.id
}

func (t *captureTrack) Stop() {
	t.stream.shutdown()
}
