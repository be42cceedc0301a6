package integration

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iwishiwala/devops-task/internal/logger"
)

var (
	ctx    context.Context
	cancel context.CancelFunc
)

func TestStatusAPIIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Status API Integration Suite")
}

// configEnv lists the variables the config loader reads; the suite runs
// with all of them unset so results do not depend on the host.
var configEnv = []string{
	"PORT", "APP_ENV", "NODE_ENV", "HOSTNAME", "PUBLIC_DIR",
	"LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT",
}

var _ = BeforeSuite(func() {
	for _, env := range configEnv {
		Expect(os.Unsetenv(env)).To(Succeed())
	}

	Expect(logger.Initialize(
		logger.WithOutput(GinkgoWriter),
		logger.WithLevel("debug"),
		logger.WithFormat(logger.FormatConsole),
	)).To(Succeed())

	ctx, cancel = context.WithCancel(context.TODO())
})

var _ = AfterSuite(func() {
	cancel()
	_ = logger.Initialize(logger.WithOutput(io.Discard))
})

// createTempDir creates a temporary directory for test files
func createTempDir(prefix string) string {
	dir, err := os.MkdirTemp("", prefix)
	Expect(err).NotTo(HaveOccurred())
	return dir
}

// cleanupTempDir removes a temporary directory
func cleanupTempDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		By(fmt.Sprintf("Warning: failed to cleanup temp dir %s: %v", dir, err))
	}
}
