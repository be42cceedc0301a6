// Package app provides application lifecycle management for the status server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iwishiwala/devops-task/internal/config"
	"github.com/iwishiwala/devops-task/internal/logger"
	"github.com/iwishiwala/devops-task/internal/process"
	"github.com/iwishiwala/devops-task/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Metrics reads process state for the JSON reports
	Metrics process.Metrics

	// Telemetry owns the tracer and meter providers
	Telemetry *telemetry.Telemetry

	// ProcessMetrics publishes process gauges through the meter provider
	ProcessMetrics *telemetry.ProcessMetrics
}

// StatusApp encapsulates all components needed to run the status server
type StatusApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	listening chan struct{}
	addr      net.Addr

	stopOnce sync.Once
	stopErr  error
}

// Start binds the listener and serves until ctx is cancelled or the server
// fails. On cancellation the server is shut down gracefully within the
// configured shutdown timeout. On a bind failure the app is stopped and the
// error returned; Listening stays open since no address was bound.
func (app *StatusApp) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		bindErr := fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
		return errors.Join(bindErr, app.Stop(app.config.ShutdownTimeout))
	}
	app.addr = ln.Addr()
	close(app.listening)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		logger.Infof("Server listening on %s", app.addr)
		if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return app.Stop(app.config.ShutdownTimeout)
	})

	return g.Wait()
}

// Listening is closed once Start has bound its listener
func (app *StatusApp) Listening() <-chan struct{} {
	return app.listening
}

// Addr returns the bound address. Only valid after Listening is closed.
func (app *StatusApp) Addr() net.Addr {
	return app.addr
}

// Stop gracefully stops the HTTP server with the given timeout and then
// flushes telemetry. Only the first call does any work.
func (app *StatusApp) Stop(timeout time.Duration) error {
	app.stopOnce.Do(func() {
		app.stopErr = app.stop(timeout)
	})
	return app.stopErr
}

func (app *StatusApp) stop(timeout time.Duration) error {
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if err := app.components.ProcessMetrics.Unregister(); err != nil {
		logger.Warnf("Failed to unregister process metrics: %v", err)
	}

	if err := app.components.Telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown telemetry: %w", err))
	}

	if len(errs) == 0 {
		logger.Info("Server shutdown complete")
	}
	return errors.Join(errs...)
}

// GetConfig returns the application configuration
func (app *StatusApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *StatusApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
