package telemetry

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/metric"

	"github.com/iwishiwala/devops-task/internal/process"
)

const (
	// ProcessMetricsMeterName is the name used for the process metrics meter
	ProcessMetricsMeterName = "github.com/iwishiwala/devops-task/process"
)

// ProcessMetrics publishes uptime and memory observations as gauges.
// Values are read from the source on every collection.
type ProcessMetrics struct {
	registration metric.Registration
}

// NewProcessMetrics registers process gauges with the given meter provider.
// If provider or source is nil, it returns nil (no-op metrics).
func NewProcessMetrics(provider metric.MeterProvider, source process.Metrics) (*ProcessMetrics, error) {
	if provider == nil || source == nil {
		return nil, nil
	}

	meter := provider.Meter(ProcessMetricsMeterName)

	uptime, err := meter.Float64ObservableGauge(
		"hello_app_process_uptime_seconds",
		metric.WithDescription("Time since the process started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	heapUsed, err := meter.Int64ObservableGauge(
		"hello_app_process_heap_used_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	heapTotal, err := meter.Int64ObservableGauge(
		"hello_app_process_heap_total_bytes",
		metric.WithDescription("Bytes of heap memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	goroutines, err := meter.Int64ObservableGauge(
		"hello_app_process_goroutines",
		metric.WithDescription("Number of live goroutines"),
		metric.WithUnit("{goroutine}"),
	)
	if err != nil {
		return nil, err
	}

	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		mem := source.Memory()
		o.ObserveFloat64(uptime, source.Uptime().Seconds())
		o.ObserveInt64(heapUsed, clampInt64(mem.HeapUsed))
		o.ObserveInt64(heapTotal, clampInt64(mem.HeapTotal))
		o.ObserveInt64(goroutines, int64(source.Goroutines()))
		return nil
	}, uptime, heapUsed, heapTotal, goroutines)
	if err != nil {
		return nil, err
	}

	return &ProcessMetrics{registration: reg}, nil
}

// Unregister stops the gauges from being observed
func (m *ProcessMetrics) Unregister() error {
	if m == nil || m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
