// Package logger provides the process-wide structured logger for hello-app.
// It wraps zap and exposes printf-style helpers for call sites that only
// need a message, plus the underlying *zap.Logger for structured fields.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

const (
	// FormatJSON emits one JSON object per line
	FormatJSON = "json"
	// FormatConsole emits human-readable lines
	FormatConsole = "console"
)

var (
	mu     sync.RWMutex
	base   = zap.NewNop()
	sugar  = base.Sugar()
	levels = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Option configures Initialize
type Option func(*options)

type options struct {
	level  string
	format string
	out    io.Writer
}

// WithLevel sets the minimum enabled level (debug, info, warn, error)
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithFormat sets the encoder format. An empty format picks console when
// the output is a terminal and JSON otherwise.
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithOutput redirects log output, mainly for tests
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// Initialize builds the global logger. It can be called again to reconfigure.
func Initialize(opts ...Option) error {
	o := &options{out: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	level, err := ParseLevel(o.level)
	if err != nil {
		return err
	}

	format := o.format
	if format == "" {
		format = DetectFormat(o.out)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	var enc zapcore.Encoder
	switch format {
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(encCfg)
	case FormatConsole:
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return fmt.Errorf("unsupported log format %q", format)
	}

	atom := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(enc, zapcore.AddSync(o.out), atom)
	z := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	mu.Lock()
	base = z
	sugar = z.WithOptions(zap.AddCallerSkip(1)).Sugar()
	levels = atom
	mu.Unlock()

	return nil
}

// ParseLevel converts a level name into a zap level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
}

// DetectFormat returns FormatConsole when w is a terminal
func DetectFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return FormatConsole
	}
	return FormatJSON
}

// Get returns the structured logger
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Logr returns a logr.Logger backed by the global zap logger
func Logr() logr.Logger {
	return zapr.NewLogger(Get())
}

// Enabled reports whether the given level is currently logged
func Enabled(level zapcore.Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return levels.Enabled(level)
}

// Sync flushes buffered entries
func Sync() error {
	return Get().Sync()
}

func s() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debug logs at debug level
func Debug(msg string) { s().Debug(msg) }

// Debugf logs a formatted message at debug level
func Debugf(format string, args ...any) { s().Debugf(format, args...) }

// Info logs at info level
func Info(msg string) { s().Info(msg) }

// Infof logs a formatted message at info level
func Infof(format string, args ...any) { s().Infof(format, args...) }

// Warn logs at warn level
func Warn(msg string) { s().Warn(msg) }

// Warnf logs a formatted message at warn level
func Warnf(format string, args ...any) { s().Warnf(format, args...) }

// Error logs at error level
func Error(msg string) { s().Error(msg) }

// Errorf logs a formatted message at error level
func Errorf(format string, args ...any) { s().Errorf(format, args...) }

// Fatalf logs a formatted message and exits the process
func Fatalf(format string, args ...any) { s().Fatalf(format, args...) }
