package app

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/iwishiwala/devops-task/internal/api"
	"github.com/iwishiwala/devops-task/internal/config"
	"github.com/iwishiwala/devops-task/internal/logger"
	"github.com/iwishiwala/devops-task/internal/process"
	"github.com/iwishiwala/devops-task/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// StatusAppOptions is a function that configures the status app builder
type StatusAppOptions func(*statusAppConfig) error

// statusAppConfig collects everything NewStatusApp needs. Components left
// nil are built from config.
type statusAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	metrics   process.Metrics
	telemetry *telemetry.Telemetry

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...StatusAppOptions) (*statusAppConfig, error) {
	cfg := &statusAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.Default()
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Address()
	}

	return cfg, nil
}

// NewStatusApp assembles the status server from the given options
func NewStatusApp(ctx context.Context, opts ...StatusAppOptions) (*StatusApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.metrics == nil {
		cfg.metrics = process.NewRuntime()
	}

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	processMetrics, err := telemetry.NewProcessMetrics(cfg.telemetry.MeterProvider(), cfg.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to register process metrics: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg)
	if err != nil {
		_ = processMetrics.Unregister()
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	return &StatusApp{
		config: cfg.config,
		components: &AppComponents{
			Metrics:        cfg.metrics,
			Telemetry:      cfg.telemetry,
			ProcessMetrics: processMetrics,
		},
		httpServer: httpServer,
		listening:  make(chan struct{}),
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) StatusAppOptions {
	return func(cfg *statusAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the listen address derived from the configured port
func WithAddress(addr string) StatusAppOptions {
	return func(cfg *statusAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, ok := strings.Cut(addr, ":")
		if !ok || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default middleware chain
func WithMiddlewares(mw ...func(http.Handler) http.Handler) StatusAppOptions {
	return func(cfg *statusAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithProcessMetrics sets the process metrics source (for testing)
func WithProcessMetrics(m process.Metrics) StatusAppOptions {
	return func(cfg *statusAppConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithTelemetry injects already initialized telemetry providers
func WithTelemetry(t *telemetry.Telemetry) StatusAppOptions {
	return func(cfg *statusAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithRequestTimeout bounds the time a single handler may run
func WithRequestTimeout(d time.Duration) StatusAppOptions {
	return func(cfg *statusAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive, got %s", d)
		}
		cfg.requestTimeout = d
		return nil
	}
}

// defaultMiddlewares returns the chain, outermost first
func defaultMiddlewares(b *statusAppConfig) ([]func(http.Handler) http.Handler, error) {
	metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}

	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		api.ErrorMiddleware,
		api.LoggingMiddleware,
		middleware.Timeout(b.requestTimeout),
		telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
		metricsMiddleware,
		middleware.GetHead,
	}, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *statusAppConfig) (*http.Server, error) {
	logger.Info("Initializing HTTP server")

	if b.middlewares == nil {
		mw, err := defaultMiddlewares(b)
		if err != nil {
			return nil, err
		}
		b.middlewares = mw
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
		api.WithEnvironment(b.config.Environment),
		api.WithHostname(b.config.Hostname),
		api.WithPublicDir(b.config.PublicDir),
		api.WithTracer(b.telemetry.Tracer(telemetry.TracerName)),
	}
	if h := b.telemetry.MetricsHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
		logger.Info("Prometheus metrics exposed at /metrics")
	}

	router := api.NewServer(b.metrics, serverOpts...)

	server := &http.Server{
		Addr:              b.address,
		Handler:           router,
		ReadTimeout:       b.readTimeout,
		ReadHeaderTimeout: b.readTimeout,
		WriteTimeout:      b.writeTimeout,
		IdleTimeout:       b.idleTimeout,
	}

	logger.Infof("HTTP server configured (address: %s)", b.address)
	return server, nil
}
