// Package api provides the HTTP router for the status server.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/iwishiwala/devops-task/internal/api/common"
	"github.com/iwishiwala/devops-task/internal/api/health"
	"github.com/iwishiwala/devops-task/internal/api/info"
	"github.com/iwishiwala/devops-task/internal/process"
)

const (
	// DefaultEnvironment is reported when no environment is configured
	DefaultEnvironment = "development"
	// DefaultHostname is reported when no hostname is configured
	DefaultHostname = "unknown"
	// DefaultPublicDir is the static file root
	DefaultPublicDir = "app/public"
)

// ServerOption configures the status server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	environment    string
	hostname       string
	publicDir      string
	tracer         trace.Tracer
	metricsHandler http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithEnvironment sets the environment name reported by the JSON endpoints
func WithEnvironment(env string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.environment = env
	}
}

// WithHostname sets the hostname reported by /api
func WithHostname(hostname string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.hostname = hostname
	}
}

// WithPublicDir sets the directory static files are served from
func WithPublicDir(dir string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.publicDir = dir
	}
}

// WithTracer sets the tracer used for report spans
func WithTracer(tracer trace.Tracer) ServerOption {
	return func(cfg *serverConfig) {
		cfg.tracer = tracer
	}
}

// WithMetricsHandler mounts h at /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// NewServer creates and configures the HTTP router with the given process
// metrics source and options
func NewServer(metrics process.Metrics, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
		environment: DefaultEnvironment,
		hostname:    DefaultHostname,
		publicDir:   DefaultPublicDir,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	health.NewRoutes(metrics, cfg.environment, cfg.tracer).Register(r)
	info.NewRoutes(metrics, info.Settings{
		Environment: cfg.environment,
		Hostname:    cfg.hostname,
	}, cfg.tracer).Register(r)

	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	static := NewStaticHandler(cfg.publicDir, cfg.tracer)
	r.Get("/", static.ServeHTTP)
	r.Get("/*", static.ServeHTTP)

	return r
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteNotFound(w)
}

func methodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteErrorResponse(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
