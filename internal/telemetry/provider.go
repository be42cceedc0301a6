package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Collector locates the OTLP/HTTP collector that receives traces and metrics
type Collector struct {
	Endpoint string
	Insecure bool
}

// ProviderOption configures NewTracerProvider and NewMeterProvider
type ProviderOption func(*providerConfig)

type providerConfig struct {
	serviceName    string
	serviceVersion string
	collector      Collector
	registerer     prometheus.Registerer
}

func newProviderConfig(opts []ProviderOption) *providerConfig {
	cfg := &providerConfig{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
		collector:      Collector{Endpoint: DefaultEndpoint},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithService names the service on the exported resource
func WithService(name, version string) ProviderOption {
	return func(cfg *providerConfig) {
		if name != "" {
			cfg.serviceName = name
		}
		if version != "" {
			cfg.serviceVersion = version
		}
	}
}

// WithCollector sets the OTLP collector
func WithCollector(c Collector) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.collector = c
	}
}

// WithPrometheusRegisterer sets where the Prometheus exporter registers its
// collector. Without it the exporter uses prometheus.DefaultRegisterer.
// Only the meter provider reads it.
func WithPrometheusRegisterer(reg prometheus.Registerer) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.registerer = reg
	}
}

func (cfg *providerConfig) resource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.serviceName),
			semconv.ServiceVersion(cfg.serviceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
