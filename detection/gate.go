package detection

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Gate serializes running mode switches against detect calls.
//
// Callers that need the mode the detector is already in share the gate and
// may detect concurrently. A caller that needs the other mode waits until
// every holder released, then performs exactly one SetOptions call while all
// other callers wait. Callers queued behind a pending switch do not jump it,
// so neither surface type starves the other.
type Gate struct {
	detector  Detector
	threshold *Threshold
	onSwitch  func(Options)

	mu        sync.Mutex
	active    int
	pending   int
	switching bool
	changed   chan struct{}
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithSwitchHook registers fn to be called after every successful mode switch.
func WithSwitchHook(fn func(Options)) GateOption {
	return func(g *Gate) {
		g.onSwitch = fn
	}
}

// NewGate creates a gate for the detector. The threshold is sampled at every
// mode switch.
//
// Arguments:
//   - detector: The shared detector.
//   - threshold: The score threshold source. A nil threshold uses DefaultScoreThreshold.
//   - opts: Optional gate configuration.
//
// Returns:
//   - *Gate: The gate.
func NewGate(detector Detector, threshold *Threshold, opts ...GateOption) *Gate {
	if threshold == nil {
		threshold = NewThreshold(DefaultScoreThreshold)
	}
	g := &Gate{
		detector:  detector,
		threshold: threshold,
		changed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Detector returns the detector guarded by the gate.
func (g *Gate) Detector() Detector {
	return g.detector
}

// Acquire blocks until the detector runs in mode and registers the caller as
// a holder. The returned release func must be called once the detect call
// (and anything relying on its mode) finished; calling it more than once is
// harmless.
//
// Arguments:
//   - ctx: Cancels the wait and is passed to SetOptions.
//   - mode: The running mode the caller needs.
//
// Returns:
//   - func(): Releases the gate.
//   - error: ErrNotReady if the detector is not loaded, the context error,
//     or the SetOptions failure.
func (g *Gate) Acquire(ctx context.Context, mode RunningMode) (func(), error) {
	waiting := false
	defer func() {
		if waiting {
			g.mu.Lock()
			g.pending--
			g.broadcastLocked()
			g.mu.Unlock()
		}
	}()

	for {
		if !g.detector.Ready() {
			return nil, ErrNotReady
		}

		g.mu.Lock()
		current := g.detector.RunningMode()
		if !g.switching && current == mode && (g.pending == 0 || waiting) {
			g.active++
			g.mu.Unlock()
			return g.release(), nil
		}

		if !g.switching && current != mode && g.active == 0 {
			g.switching = true
			g.mu.Unlock()

			opts := Options{RunningMode: mode, ScoreThreshold: g.threshold.Value()}
			err := g.detector.SetOptions(ctx, opts)

			g.mu.Lock()
			g.switching = false
			if err == nil {
				g.active++
			}
			g.broadcastLocked()
			g.mu.Unlock()

			if err != nil {
				return nil, errors.Wrapf(err, "switching detector to %s mode", mode)
			}
			if g.onSwitch != nil {
				g.onSwitch(opts)
			}
			return g.release(), nil
		}

		if current != mode && !waiting {
			waiting = true
			g.pending++
		}
		wait := g.changed
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

func (g *Gate) release() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.active--
			g.broadcastLocked()
			g.mu.Unlock()
		})
	}
}

// broadcastLocked wakes every waiter. g.mu must be held.
func (g *Gate) broadcastLocked() {
	close(g.changed)
	g.changed = make(chan struct{})
}
