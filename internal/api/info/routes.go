// Package info provides the application information endpoints.
package info

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/iwishiwala/devops-task/internal/api/common"
	"github.com/iwishiwala/devops-task/internal/otel"
	"github.com/iwishiwala/devops-task/internal/process"
	"github.com/iwishiwala/devops-task/internal/versions"
)

const (
	// ServiceName identifies this service in /api/status
	ServiceName = "hello_app"

	welcomeMessage = "Welcome to DevOps Takehome Application!"
)

// Report is the /api body
type Report struct {
	Message     string `json:"message"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
	Hostname    string `json:"hostname"`
}

// StatusReport is the /api/status body
type StatusReport struct {
	Service     string              `json:"service"`
	Status      string              `json:"status"`
	Version     string              `json:"version"`
	Uptime      float64             `json:"uptime"`
	Memory      process.MemoryUsage `json:"memory"`
	Environment string              `json:"environment"`
	Instance    string              `json:"instance"`
	Goroutines  int                 `json:"goroutines"`
}

// Settings are the configured values reported by the info endpoints
type Settings struct {
	Environment string
	Hostname    string
}

// Routes serves the info endpoints
type Routes struct {
	metrics  process.Metrics
	settings Settings
	instance string
	tracer   trace.Tracer
}

// NewRoutes creates the info routes. Each call draws a new instance id, so
// construct it once per process. tracer may be nil.
func NewRoutes(metrics process.Metrics, settings Settings, tracer trace.Tracer) *Routes {
	return &Routes{
		metrics:  metrics,
		settings: settings,
		instance: uuid.NewString(),
		tracer:   tracer,
	}
}

// Register adds /api, /api/status and /version to r
func (rt *Routes) Register(r chi.Router) {
	r.Get("/api", common.Handle(rt.info))
	r.Get("/api/status", common.Handle(rt.status))
	r.Get("/version", common.Handle(rt.version))
}

// Info builds the /api report
func (rt *Routes) Info() Report {
	return Report{
		Message:     welcomeMessage,
		Version:     versions.APIVersion,
		Environment: rt.settings.Environment,
		Timestamp:   common.Timestamp(rt.metrics.Now()),
		Hostname:    rt.settings.Hostname,
	}
}

// Status builds the /api/status report
func (rt *Routes) Status() StatusReport {
	return StatusReport{
		Service:     ServiceName,
		Status:      "running",
		Version:     versions.APIVersion,
		Uptime:      rt.metrics.Uptime().Seconds(),
		Memory:      rt.metrics.Memory(),
		Environment: rt.settings.Environment,
		Instance:    rt.instance,
		Goroutines:  rt.metrics.Goroutines(),
	}
}

func (rt *Routes) info(w http.ResponseWriter, _ *http.Request) error {
	common.WriteJSONResponse(w, rt.Info(), http.StatusOK)
	return nil
}

func (rt *Routes) status(w http.ResponseWriter, r *http.Request) error {
	_, span := otel.StartSpan(r.Context(), rt.tracer, "report.status",
		trace.WithAttributes(
			otel.AttrReportKind.String("status"),
			otel.AttrEnvironment.String(rt.settings.Environment),
		))
	defer span.End()

	report := rt.Status()
	span.SetAttributes(otel.AttrHeapUsedBytes.Int64(clampInt64(report.Memory.HeapUsed)))

	common.WriteJSONResponse(w, report, http.StatusOK)
	return nil
}

func (*Routes) version(w http.ResponseWriter, _ *http.Request) error {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
	return nil
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
