// Package helpers provides utilities for the status API integration tests.
package helpers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"

	statusapp "github.com/iwishiwala/devops-task/internal/app"
	"github.com/iwishiwala/devops-task/internal/config"
)

// ServerTestHelper manages the status server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	cancel     context.CancelFunc
	configPath string
	publicDir  string
	baseURL    string
	httpClient *http.Client
	app        *statusapp.StatusApp
	done       chan error
}

// NewServerTestHelper creates a helper for a server reading its settings
// from configPath (may be empty) and serving files from publicDir
func NewServerTestHelper(ctx context.Context, configPath, publicDir string) *ServerTestHelper {
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		publicDir:  publicDir,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// StartServer builds the application and serves it on an ephemeral
// loopback port. It returns once the listener is bound.
func (s *ServerTestHelper) StartServer() error {
	var opts []config.Option
	if s.configPath != "" {
		opts = append(opts, config.WithConfigPath(s.configPath))
	}

	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.PublicDir = s.publicDir

	app, err := statusapp.NewStatusApp(s.ctx,
		statusapp.WithConfig(cfg),
		statusapp.WithAddress("127.0.0.1:0"),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	runCtx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.done = make(chan error, 1)

	go func() {
		s.done <- app.Start(runCtx)
	}()

	select {
	case <-app.Listening():
		s.baseURL = "http://" + app.Addr().String()
		return nil
	case err := <-s.done:
		return fmt.Errorf("server exited before listening: %w", err)
	case <-time.After(10 * time.Second):
		return fmt.Errorf("server did not start listening")
	}
}

// StopServer cancels the server context and waits for shutdown
func (s *ServerTestHelper) StopServer() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	select {
	case err := <-s.done:
		return err
	case <-time.After(30 * time.Second):
		return fmt.Errorf("server did not stop")
	}
}

// WaitForServerReady waits for the server to answer /ready
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/ready")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Do sends a request without a body and returns the response and its body
func (s *ServerTestHelper) Do(method, path string) (*http.Response, string, error) {
	req, err := http.NewRequestWithContext(s.ctx, method, s.baseURL+path, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return resp, string(body), nil
}

// Get makes a GET request to path
func (s *ServerTestHelper) Get(path string) (*http.Response, string, error) {
	return s.Do(http.MethodGet, path)
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}

// WritePublicFiles creates files below dir, keyed by slash-separated path
func WritePublicFiles(dir string, files map[string]string) {
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		gomega.Expect(os.MkdirAll(filepath.Dir(path), 0750)).To(gomega.Succeed())
		gomega.Expect(os.WriteFile(path, []byte(content), 0600)).To(gomega.Succeed())
	}
}

// WriteConfigYAML writes a YAML configuration file and returns its path
func WriteConfigYAML(dir, environment string, prometheus bool) string {
	content := fmt.Sprintf(`environment: %s
hostname: integration-host
shutdownTimeout: 5s
`, environment)

	if prometheus {
		content += `telemetry:
  enabled: true
  metrics:
    prometheus: true
`
	}

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, []byte(content), 0600)).To(gomega.Succeed())
	return path
}
