package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsMeterName is the name used for the HTTP metrics meter
const HTTPMetricsMeterName = "github.com/iwishiwala/devops-task/http"

// HTTPMetrics counts the requests the status server answers. Probe traffic
// only feeds a per-probe counter.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
	probesTotal     metric.Int64Counter
}

// NewHTTPMetrics creates the HTTP instruments on provider. A nil provider
// yields nil, whose Middleware passes requests through.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(HTTPMetricsMeterName)
	m := &HTTPMetrics{}
	var err error

	if m.requestDuration, err = meter.Float64Histogram(
		"hello_app_http_request_duration_seconds",
		metric.WithDescription("Duration of non-probe HTTP requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1),
	); err != nil {
		return nil, err
	}

	if m.requestsTotal, err = meter.Int64Counter(
		"hello_app_http_requests_total",
		metric.WithDescription("Non-probe HTTP requests by method, route and status"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.activeRequests, err = meter.Int64UpDownCounter(
		"hello_app_http_active_requests",
		metric.WithDescription("Non-probe HTTP requests in flight"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.probesTotal, err = meter.Int64Counter(
		"hello_app_http_probe_requests_total",
		metric.WithDescription("Health, readiness and liveness probe requests by status"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// Middleware records one observation per request. Scrapes of /metrics are
// not recorded.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == ScrapePath {
			next.ServeHTTP(w, r)
			return
		}

		// Kept before ServeHTTP: the request context may be cancelled afterwards
		ctx := r.Context()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		if probe, ok := probeName(r.URL.Path); ok {
			next.ServeHTTP(ww, r)
			m.probesTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("probe", probe),
				statusAttr(ww),
			))
			return
		}

		start := time.Now()
		m.activeRequests.Add(ctx, 1)
		defer m.activeRequests.Add(ctx, -1)

		next.ServeHTTP(ww, r)

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", routeLabel(r)),
			statusAttr(ww),
		)
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		m.requestsTotal.Add(ctx, 1, attrs)
	})
}

// statusAttr is the status code written, or 200 for a handler that wrote
// nothing, as net/http does on return.
func statusAttr(ww middleware.WrapResponseWriter) attribute.KeyValue {
	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}
	return attribute.String("status_code", strconv.Itoa(status))
}

// MetricsMiddleware builds the HTTP metrics middleware for provider
func MetricsMiddleware(provider metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	metrics, err := NewHTTPMetrics(provider)
	if err != nil {
		return nil, err
	}
	return metrics.Middleware, nil
}
