// Package telemetry provides OpenTelemetry instrumentation for hello-app:
// OTLP/HTTP trace and metric export, HTTP request metrics, process gauges
// and an optional Prometheus scrape endpoint.
package telemetry

import (
	"errors"
	"fmt"
	"net"
)

const (
	// DefaultServiceName is the service.name resource attribute and the
	// prefix of every metric name
	DefaultServiceName = "hello_app"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the trace sampling ratio used when none is set
	DefaultSampling = 0.05
)

// ErrInvalidEndpoint is returned when the collector endpoint is not host:port
var ErrInvalidEndpoint = errors.New("endpoint must be host:port")

// Config is the telemetry block of the YAML configuration file
type Config struct {
	// Enabled gates everything below. When false no SDK provider is built.
	Enabled bool `yaml:"enabled"`

	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the collector as host:port; the exporters append
	// /v1/traces and /v1/metrics.
	Endpoint string `yaml:"endpoint,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig defines tracing-specific configuration
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of root traces kept, 0.0 to 1.0
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig selects the metric sinks. Either may be on without the other.
type MetricsConfig struct {
	// Enabled turns on periodic OTLP metric export
	Enabled bool `yaml:"enabled"`

	// Prometheus serves metrics for scraping on /metrics
	Prometheus bool `yaml:"prometheus,omitempty"`
}

// GetServiceName returns the service name, using default if not specified
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the service version, using "unknown" if not specified
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// Collector returns the OTLP collector settings with defaults applied
func (c *Config) Collector() Collector {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return Collector{Endpoint: endpoint, Insecure: c.Insecure}
}

// PrometheusEnabled reports whether the scrape endpoint should be exposed
func (c *Config) PrometheusEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Prometheus
}

// GetSampling returns the sampling ratio.
// 0 is treated as "use default" since an unset value and an explicit 0
// cannot be told apart in YAML.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0.0 {
		return DefaultSampling
	}
	return c.Sampling
}

// Validate checks an enabled configuration. A nil or disabled one is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error

	if c.Endpoint != "" {
		if _, _, err := net.SplitHostPort(c.Endpoint); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.Endpoint))
		}
	}

	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	return errors.Join(errs...)
}

// Validate validates the tracing configuration
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	if c.Sampling < 0 || c.Sampling > 1.0 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %f", c.Sampling)
	}

	return nil
}
