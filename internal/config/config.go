// Package config provides configuration loading and management for hello-app.
//
// Configuration is read once at startup from, in increasing precedence:
// built-in defaults, an optional YAML file, a .env file, the process
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/iwishiwala/devops-task/internal/logger"
	"github.com/iwishiwala/devops-task/internal/telemetry"
)

// Defaults for every recognised option
const (
	DefaultPort            = 3000
	DefaultEnvironment     = "development"
	DefaultHostname        = "unknown"
	DefaultPublicDir       = "app/public"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultEnvFile         = ".env"
)

// Configuration keys, shared by viper and the flag set
const (
	KeyPort            = "port"
	KeyEnvironment     = "environment"
	KeyHostname        = "hostname"
	KeyPublicDir       = "public-dir"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyShutdownTimeout = "shutdown-timeout"
)

// envBindings maps each key to the environment variables consulted, in order
var envBindings = map[string][]string{
	KeyPort:            {"PORT"},
	KeyEnvironment:     {"NODE_ENV", "APP_ENV"},
	KeyHostname:        {"HOSTNAME"},
	KeyPublicDir:       {"PUBLIC_DIR"},
	KeyLogLevel:        {"LOG_LEVEL"},
	KeyLogFormat:       {"LOG_FORMAT"},
	KeyShutdownTimeout: {"SHUTDOWN_TIMEOUT"},
}

var (
	// ErrInvalidPort is returned when the port is not a TCP port number
	ErrInvalidPort = errors.New("port must be between 1 and 65535")
	// ErrEmptyPublicDir is returned when no public directory is configured
	ErrEmptyPublicDir = errors.New("public directory is required")
)

// Config is the complete runtime configuration
type Config struct {
	// Port is the TCP port to listen on, on all interfaces
	Port int `yaml:"port"`

	// Environment is the deployment label reported by the JSON endpoints
	Environment string `yaml:"environment"`

	// Hostname is the host name reported by /api
	Hostname string `yaml:"hostname"`

	// PublicDir is the directory static assets are served from
	PublicDir string `yaml:"publicDir"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	Log LogConfig `yaml:"log"`

	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "json" or "console"; empty picks based on the terminal
	Format string `yaml:"format,omitempty"`
}

// Default returns a Config populated with defaults
func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		Environment:     DefaultEnvironment,
		Hostname:        DefaultHostname,
		PublicDir:       DefaultPublicDir,
		ShutdownTimeout: DefaultShutdownTimeout,
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Address returns the listen address, bound to all interfaces
func (c *Config) Address() string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(c.Port))
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrInvalidPort, c.Port))
	}
	if c.PublicDir == "" {
		errs = append(errs, ErrEmptyPublicDir)
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", logger.FormatJSON, logger.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Log.Format))
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

// Option configures LoadConfig
type Option func(*loaderConfig) error

type loaderConfig struct {
	path    string
	envFile string
	flags   *pflag.FlagSet
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks before checking for traversal; this also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// WithEnvFile loads variables from a dotenv file before reading the
// environment. A missing file is not an error. Variables already present
// in the environment are not overridden.
func WithEnvFile(path string) Option {
	return func(cfg *loaderConfig) error {
		cfg.envFile = path
		return nil
	}
}

// WithFlags lets explicitly set command-line flags override everything else
func WithFlags(fs *pflag.FlagSet) Option {
	return func(cfg *loaderConfig) error {
		cfg.flags = fs
		return nil
	}
}

// RegisterFlags adds the configuration flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int(KeyPort, DefaultPort, "Port to listen on (env PORT)")
	fs.String(KeyEnvironment, DefaultEnvironment, "Deployment environment name (env NODE_ENV, then APP_ENV)")
	fs.String(KeyHostname, DefaultHostname, "Hostname reported by /api (env HOSTNAME)")
	fs.String(KeyPublicDir, DefaultPublicDir, "Directory to serve static files from (env PUBLIC_DIR)")
	fs.String(KeyLogLevel, DefaultLogLevel, "Log level: debug, info, warn, error (env LOG_LEVEL)")
	fs.String(KeyLogFormat, "", "Log format: json or console (env LOG_FORMAT)")
	fs.Duration(KeyShutdownTimeout, DefaultShutdownTimeout, "Graceful shutdown timeout (env SHUTDOWN_TIMEOUT)")
}

// LoadConfig builds the configuration from all sources and validates it
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	cfg := Default()

	if loaderCfg.path != "" {
		if err := loadFile(loaderCfg.path, cfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.envFile != "" {
		if err := godotenv.Load(loaderCfg.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", loaderCfg.envFile, err)
		}
	}

	v, err := newViper(loaderCfg.flags)
	if err != nil {
		return nil, err
	}

	if err := applyOverrides(v, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path) // #nosec G304 -- path is validated by WithConfigPath
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	// An empty file decodes to io.EOF and leaves the defaults untouched
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
		if flags == nil {
			continue
		}
		if f := flags.Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", key, err)
			}
		}
	}

	return v, nil
}

// applyOverrides copies every key set in the environment or on the command
// line into cfg. Unset keys keep their file or default value.
func applyOverrides(v *viper.Viper, cfg *Config) error {
	if v.IsSet(KeyPort) {
		port, err := strconv.Atoi(v.GetString(KeyPort))
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", v.GetString(KeyPort), err)
		}
		cfg.Port = port
	}
	if v.IsSet(KeyEnvironment) {
		cfg.Environment = v.GetString(KeyEnvironment)
	}
	if v.IsSet(KeyHostname) {
		cfg.Hostname = v.GetString(KeyHostname)
	}
	if v.IsSet(KeyPublicDir) {
		cfg.PublicDir = v.GetString(KeyPublicDir)
	}
	if v.IsSet(KeyLogLevel) {
		cfg.Log.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogFormat) {
		cfg.Log.Format = v.GetString(KeyLogFormat)
	}
	if v.IsSet(KeyShutdownTimeout) {
		d, err := time.ParseDuration(v.GetString(KeyShutdownTimeout))
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout %q: %w", v.GetString(KeyShutdownTimeout), err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}
