package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwishiwala/devops-task/internal/telemetry"
)

// createTestApp builds an app bound to an ephemeral loopback port
func createTestApp(t *testing.T) *StatusApp {
	t.Helper()

	app, err := NewStatusApp(context.Background(),
		WithConfig(createValidTestConfig(t)),
		WithAddress("127.0.0.1:0"),
	)
	require.NoError(t, err)
	return app
}

func startApp(t *testing.T, ctx context.Context, app *StatusApp) <-chan error {
	t.Helper()

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start(ctx)
	}()

	select {
	case <-app.Listening():
	case err := <-errChan:
		t.Fatalf("Start() returned before listening: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start listening")
	}
	return errChan
}

func waitStart(t *testing.T, errChan <-chan error) error {
	t.Helper()
	select {
	case err := <-errChan:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("Start() did not return")
		return nil
	}
}

func TestStatusApp_StartServesRequests(t *testing.T) {
	t.Parallel()

	app := createTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := startApp(t, ctx, app)

	resp, err := http.Get("http://" + app.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, waitStart(t, errChan))
}

func TestStatusApp_StopEndsStart(t *testing.T) {
	t.Parallel()

	app := createTestApp(t)
	errChan := startApp(t, context.Background(), app)

	require.NoError(t, app.Stop(5*time.Second))
	require.NoError(t, waitStart(t, errChan))

	_, err := http.Get("http://" + app.Addr().String() + "/health")
	assert.Error(t, err, "listener is closed after Stop")
}

func TestStatusApp_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	app := createTestApp(t)

	assert.NoError(t, app.Stop(time.Second))
	assert.NoError(t, app.Stop(time.Second))
}

func TestStatusApp_BindFailure(t *testing.T) {
	t.Parallel()

	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = occupied.Close() })

	cfg := createValidTestConfig(t)
	cfg.Telemetry = &telemetry.Config{
		Enabled: true,
		Metrics: &telemetry.MetricsConfig{Prometheus: true},
	}

	app, err := NewStatusApp(context.Background(),
		WithConfig(cfg),
		WithAddress(occupied.Addr().String()),
	)
	require.NoError(t, err)

	scrape := app.components.Telemetry.MetricsHandler()
	require.NotNil(t, scrape)
	assert.Contains(t, scrapeBody(t, scrape), "hello_app_process_uptime")

	err = app.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen on")

	select {
	case <-app.Listening():
		t.Fatal("Listening must stay open when the bind fails")
	default:
	}

	// The failed start already ran Stop: gauges are unregistered and the
	// meter provider is shut down, so nothing of ours is scraped any more.
	body := scrapeBody(t, scrape)
	assert.NotContains(t, body, "hello_app_process_uptime")
	assert.Contains(t, body, "go_goroutines")
	assert.NoError(t, app.Stop(time.Second))
}

func scrapeBody(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestStatusApp_GracefulShutdownWaitsForInflight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	slow := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			close(entered)
			<-release
			w.WriteHeader(http.StatusOK)
		})
	}

	app, err := NewStatusApp(context.Background(),
		WithConfig(createValidTestConfig(t)),
		WithAddress("127.0.0.1:0"),
		WithMiddlewares(slow),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := startApp(t, ctx, app)

	respChan := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + app.Addr().String() + "/live")
		if err != nil {
			respChan <- 0
			return
		}
		resp.Body.Close()
		respChan <- resp.StatusCode
	}()

	<-entered
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	assert.Equal(t, http.StatusOK, <-respChan)
	require.NoError(t, waitStart(t, errChan))
}
