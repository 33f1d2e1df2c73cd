// Package profiler - Operation timing for detect and render passes.
package profiler

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Operation names recorded by the engine.
const (
	OperationDetectImage = "detect.image"
	OperationDetectVideo = "detect.video"
	OperationRender      = "render"
)

// Profiler tracks timing statistics for named operations and periodically
// logs them.
//
// The profiler is safe for concurrent use. A nil *Profiler records nothing.
type Profiler struct {
	logger         *zap.Logger
	clock          clock.Clock
	reportInterval time.Duration
	maxSamples     int

	mu         sync.Mutex
	operations map[string]*timeTracker
	startTime  time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// timeTracker tracks operation timing statistics over a sliding window.
type timeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// Options configures the profiler.
type Options struct {
	// ReportInterval specifies how often to log reports (default: 10s).
	ReportInterval time.Duration
	// MaxSamples specifies how many durations are kept per operation (default: 600).
	MaxSamples int
	// Logger receives the reports (default: no-op).
	Logger *zap.Logger
	// Clock drives the report ticker (default: wall clock).
	Clock clock.Clock
}

// OperationStats is a snapshot of one operation's timings.
type OperationStats struct {
	Name    string
	Count   int64
	Samples int
	Avg     time.Duration
	Min     time.Duration
	Max     time.Duration
}

// New creates a profiler with the specified options.
//
// Arguments:
//   - opts: Configuration options for the profiler.
//
// Returns:
//   - *Profiler: A configured profiler, not yet reporting.
func New(opts Options) *Profiler {
	if opts.ReportInterval == 0 {
		opts.ReportInterval = 10 * time.Second
	}
	if opts.MaxSamples == 0 {
		opts.MaxSamples = 600
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	return &Profiler{
		logger:         opts.Logger.Named("profiler"),
		clock:          opts.Clock,
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		operations:     make(map[string]*timeTracker),
		startTime:      opts.Clock.Now(),
	}
}

// Start begins periodic reporting until Stop is called or ctx is done.
// Calling Start on a running profiler does nothing.
func (p *Profiler) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.startTime = p.clock.Now()

	ticker := p.clock.Ticker(p.reportInterval)
	go func(done chan struct{}) {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Report()
			}
		}
	}(p.done)
}

// Stop halts periodic reporting and waits for the reporter to exit.
func (p *Profiler) Stop() {
	if p == nil {
		return
	}

	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - func(): A function to call when the operation completes.
func (p *Profiler) StartOperation(name string) func() {
	if p == nil {
		return func() {}
	}

	start := p.clock.Now()
	return func() {
		p.record(name, p.clock.Since(start))
	}
}

func (p *Profiler) record(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operations[name]
	if !exists {
		tracker = &timeTracker{minTime: duration, maxTime: duration}
		p.operations[name] = tracker
	}

	tracker.durations = append(tracker.durations, duration)
	if len(tracker.durations) > p.maxSamples {
		// Drop the oldest sample.
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}

	tracker.totalTime += duration
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// Stats returns a snapshot of every operation, sorted by name.
func (p *Profiler) Stats() []OperationStats {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make([]OperationStats, 0, len(p.operations))
	for name, tracker := range p.operations {
		if len(tracker.durations) == 0 {
			continue
		}
		stats = append(stats, OperationStats{
			Name:    name,
			Count:   tracker.count,
			Samples: len(tracker.durations),
			Avg:     tracker.totalTime / time.Duration(len(tracker.durations)),
			Min:     tracker.minTime,
			Max:     tracker.maxTime,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Report logs the runtime state and every operation's timings.
func (p *Profiler) Report() {
	if p == nil {
		return
	}

	p.mu.Lock()
	uptime := p.clock.Since(p.startTime)
	p.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.logger.Info("runtime",
		zap.Duration("uptime", uptime.Truncate(time.Millisecond)),
		zap.Int("goroutines", runtime.NumGoroutine()),
		zap.Uint64("heap_alloc", mem.HeapAlloc),
		zap.Uint32("gc_cycles", mem.NumGC),
	)

	for _, s := range p.Stats() {
		p.logger.Info("operation",
			zap.String("name", s.Name),
			zap.Duration("avg", s.Avg.Truncate(time.Microsecond)),
			zap.Duration("min", s.Min.Truncate(time.Microsecond)),
			zap.Duration("max", s.Max.Truncate(time.Microsecond)),
			zap.Int64("count", s.Count),
		)
	}
}
