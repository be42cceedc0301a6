// Package process exposes read-only observations of the hosting process:
// wall clock, uptime and memory usage.
package process

//go:generate mockgen -destination=mocks/mock_metrics.go -package=mocks -source=process.go Metrics

import (
	"runtime"
	"time"
)

const bytesPerMB = 1024 * 1024

// processStart is taken during package initialization, before main runs.
// It carries a monotonic reading, so uptime is immune to wall-clock steps.
var processStart = time.Now()

// Metrics is the capability handlers use to read process state
type Metrics interface {
	// Now returns the current wall-clock time
	Now() time.Time
	// Uptime returns the time elapsed since the process started
	Uptime() time.Duration
	// Memory returns a snapshot of memory usage
	Memory() MemoryUsage
	// Goroutines returns the number of live goroutines
	Goroutines() int
}

// MemoryUsage is a byte-level memory breakdown.
// The JSON names follow the conventional process.memoryUsage() shape so
// existing dashboards keep working.
type MemoryUsage struct {
	RSS          uint64 `json:"rss"`
	HeapTotal    uint64 `json:"heapTotal"`
	HeapUsed     uint64 `json:"heapUsed"`
	External     uint64 `json:"external"`
	ArrayBuffers uint64 `json:"arrayBuffers"`
}

// HeapUsedMB returns the used heap in whole megabytes
func (m MemoryUsage) HeapUsedMB() uint64 {
	return m.HeapUsed / bytesPerMB
}

// HeapTotalMB returns the heap reserved from the OS in whole megabytes
func (m MemoryUsage) HeapTotalMB() uint64 {
	return m.HeapTotal / bytesPerMB
}

// FromMemStats maps Go runtime statistics onto MemoryUsage
func FromMemStats(stats *runtime.MemStats) MemoryUsage {
	return MemoryUsage{
		RSS:       stats.Sys,
		HeapTotal: stats.HeapSys,
		HeapUsed:  stats.HeapAlloc,
		External: stats.StackSys + stats.MSpanSys + stats.MCacheSys +
			stats.BuckHashSys + stats.GCSys + stats.OtherSys,
	}
}

// Runtime reads metrics from the Go runtime
type Runtime struct {
	start time.Time
	clock func() time.Time
}

// Option configures a Runtime
type Option func(*Runtime)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(r *Runtime) {
		r.clock = clock
	}
}

// WithStartTime overrides the recorded start time
func WithStartTime(start time.Time) Option {
	return func(r *Runtime) {
		r.start = start
	}
}

// NewRuntime measures uptime from process start unless WithStartTime says
// otherwise
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{clock: time.Now, start: processStart}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now implements Metrics
func (r *Runtime) Now() time.Time {
	return r.clock()
}

// Uptime implements Metrics. It never returns a negative duration.
func (r *Runtime) Uptime() time.Duration {
	d := r.clock().Sub(r.start)
	if d < 0 {
		return 0
	}
	return d
}

// Memory implements Metrics
func (*Runtime) Memory() MemoryUsage {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return FromMemStats(&stats)
}

// Goroutines implements Metrics
func (*Runtime) Goroutines() int {
	return runtime.NumGoroutine()
}
