// Package health provides the orchestrator probe endpoints.
package health

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/iwishiwala/devops-task/internal/api/common"
	"github.com/iwishiwala/devops-task/internal/otel"
	"github.com/iwishiwala/devops-task/internal/process"
	"github.com/iwishiwala/devops-task/internal/versions"
)

// Report is the /health body
type Report struct {
	Status      string       `json:"status"`
	Timestamp   string       `json:"timestamp"`
	Uptime      float64      `json:"uptime"`
	Environment string       `json:"environment"`
	Memory      MemoryReport `json:"memory"`
	Version     string       `json:"version"`
}

// MemoryReport summarises heap usage in megabytes
type MemoryReport struct {
	Used  string `json:"used"`
	Total string `json:"total"`
}

// ReadinessReport is the /ready body
type ReadinessReport struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// LivenessReport is the /live body
type LivenessReport struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// Routes serves the probe endpoints
type Routes struct {
	metrics     process.Metrics
	environment string
	tracer      trace.Tracer
}

// NewRoutes creates the probe routes. tracer may be nil.
func NewRoutes(metrics process.Metrics, environment string, tracer trace.Tracer) *Routes {
	return &Routes{
		metrics:     metrics,
		environment: environment,
		tracer:      tracer,
	}
}

// Register adds /health, /ready and /live to r
func (rt *Routes) Register(r chi.Router) {
	r.Get("/health", common.Handle(rt.health))
	r.Get("/ready", common.Handle(rt.ready))
	r.Get("/live", common.Handle(rt.live))
}

// Health builds the /health report
func (rt *Routes) Health() Report {
	mem := rt.metrics.Memory()
	return Report{
		Status:      "healthy",
		Timestamp:   common.Timestamp(rt.metrics.Now()),
		Uptime:      rt.metrics.Uptime().Seconds(),
		Environment: rt.environment,
		Memory: MemoryReport{
			Used:  formatMB(mem.HeapUsedMB()),
			Total: formatMB(mem.HeapTotalMB()),
		},
		Version: versions.APIVersion,
	}
}

// Readiness always reports ready; there are no dependencies to wait on.
func (rt *Routes) Readiness() ReadinessReport {
	return ReadinessReport{
		Status:    "ready",
		Timestamp: common.Timestamp(rt.metrics.Now()),
	}
}

// Liveness builds the /live report
func (rt *Routes) Liveness() LivenessReport {
	return LivenessReport{
		Status:    "alive",
		Timestamp: common.Timestamp(rt.metrics.Now()),
		Uptime:    rt.metrics.Uptime().Seconds(),
	}
}

func (rt *Routes) health(w http.ResponseWriter, r *http.Request) error {
	_, span := otel.StartSpan(r.Context(), rt.tracer, "report.health",
		trace.WithAttributes(
			otel.AttrReportKind.String("health"),
			otel.AttrEnvironment.String(rt.environment),
		))
	defer span.End()

	report := rt.Health()
	common.WriteJSONResponse(w, report, http.StatusOK)
	return nil
}

func (rt *Routes) ready(w http.ResponseWriter, _ *http.Request) error {
	common.WriteJSONResponse(w, rt.Readiness(), http.StatusOK)
	return nil
}

func (rt *Routes) live(w http.ResponseWriter, _ *http.Request) error {
	common.WriteJSONResponse(w, rt.Liveness(), http.StatusOK)
	return nil
}

func formatMB(mb uint64) string {
	return strconv.FormatUint(mb, 10) + " MB"
}
