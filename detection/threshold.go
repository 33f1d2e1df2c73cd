package detection

import (
	"math"
	"sync"

	"github.com/pkg/errors"
)

const (
	// MinScoreThreshold is the lowest accepted score threshold.
	MinScoreThreshold = 0.01
	// MaxScoreThreshold is the highest accepted score threshold.
	MaxScoreThreshold = 1.00
	// DefaultScoreThreshold is the threshold used until the user picks one.
	DefaultScoreThreshold = 0.30
)

// ErrThresholdRange is returned for thresholds outside [MinScoreThreshold, MaxScoreThreshold].
var ErrThresholdRange = errors.New("score threshold out of range")

// Threshold holds the user selected score threshold. The engine only reads it,
// at the moment of each mode switch.
type Threshold struct {
	mu    sync.RWMutex
	value float64
}

// NewThreshold returns a threshold initialized to value, or to
// DefaultScoreThreshold when value is out of range.
func NewThreshold(value float64) *Threshold {
	t := &Threshold{value: DefaultScoreThreshold}
	_ = t.Set(value)
	return t
}

// Value returns the current threshold.
func (t *Threshold) Value() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Set stores value rounded to two decimals. Out of range values are rejected
// and the previous threshold is kept.
//
// Arguments:
//   - value: The new threshold.
//
// Returns:
//   - error: ErrThresholdRange if value is outside [0.01, 1.00].
func (t *Threshold) Set(value float64) error {
	rounded := math.Round(value*100) / 100
	if math.IsNaN(value) || rounded < MinScoreThreshold || rounded > MaxScoreThreshold {
		return errors.Wrapf(ErrThresholdRange, "%v", value)
	}
	t.mu.Lock()
	t.value = rounded
	t.mu.Unlock()
	return nil
}
