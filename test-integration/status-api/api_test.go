package integration

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	"github.com/iwishiwala/devops-task/test-integration/status-api/helpers"
)

const timestampPattern = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`

var _ = Describe("Status API", Label("api"), func() {
	var (
		tempDir      string
		publicDir    string
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("status-api-test-")
		publicDir = createTempDir("status-api-public-")
		helpers.WritePublicFiles(publicDir, map[string]string{
			"index.html":     "<!doctype html><title>hello</title>",
			"assets/app.css": "body { margin: 0; }",
		})
	})

	AfterEach(func() {
		if serverHelper != nil {
			Expect(serverHelper.StopServer()).To(Succeed())
			serverHelper = nil
		}
		cleanupTempDir(tempDir)
		cleanupTempDir(publicDir)
	})

	Context("with default configuration", func() {
		BeforeEach(func() {
			serverHelper = helpers.NewServerTestHelper(ctx, "", publicDir)
			Expect(serverHelper.StartServer()).To(Succeed())
			serverHelper.WaitForServerReady(10 * time.Second)
		})

		It("reports health", func() {
			resp, body, err := serverHelper.Get("/health")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

			Expect(gjson.Get(body, "status").String()).To(Equal("healthy"))
			Expect(gjson.Get(body, "timestamp").String()).To(MatchRegexp(timestampPattern))
			Expect(gjson.Get(body, "uptime").Float()).To(BeNumerically(">=", 0))
			Expect(gjson.Get(body, "environment").String()).To(Equal("development"))
			Expect(gjson.Get(body, "memory.used").String()).To(MatchRegexp(`^\d+ MB$`))
			Expect(gjson.Get(body, "memory.total").String()).To(MatchRegexp(`^\d+ MB$`))
			Expect(gjson.Get(body, "version").String()).To(Equal("1.0.0"))
		})

		It("is always ready and alive", func() {
			resp, body, err := serverHelper.Get("/ready")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "status").String()).To(Equal("ready"))

			resp, body, err = serverHelper.Get("/live")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "status").String()).To(Equal("alive"))
			Expect(gjson.Get(body, "uptime").Float()).To(BeNumerically(">=", 0))
		})

		It("reports application info and status", func() {
			_, body, err := serverHelper.Get("/api")
			Expect(err).NotTo(HaveOccurred())
			Expect(gjson.Get(body, "message").String()).To(Equal("Welcome to DevOps Takehome Application!"))
			Expect(gjson.Get(body, "version").String()).To(Equal("1.0.0"))
			Expect(gjson.Get(body, "hostname").String()).To(Equal("unknown"))

			_, body, err = serverHelper.Get("/api/status")
			Expect(err).NotTo(HaveOccurred())
			Expect(gjson.Get(body, "service").String()).To(Equal("hello_app"))
			Expect(gjson.Get(body, "status").String()).To(Equal("running"))
			Expect(gjson.Get(body, "memory.heapUsed").Uint()).To(BeNumerically(">", 0))
			Expect(gjson.Get(body, "goroutines").Int()).To(BeNumerically(">", 0))

			_, err = uuid.Parse(gjson.Get(body, "instance").String())
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps the instance id stable across requests", func() {
			_, first, err := serverHelper.Get("/api/status")
			Expect(err).NotTo(HaveOccurred())
			_, second, err := serverHelper.Get("/api/status")
			Expect(err).NotTo(HaveOccurred())

			Expect(gjson.Get(second, "instance").String()).To(Equal(gjson.Get(first, "instance").String()))
		})

		It("serves static files", func() {
			resp, body, err := serverHelper.Get("/")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/html"))
			Expect(body).To(ContainSubstring("<title>hello</title>"))

			resp, body, err = serverHelper.Get("/assets/app.css")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/css"))
			Expect(body).To(Equal("body { margin: 0; }"))
		})

		It("answers unknown paths with a JSON 404", func() {
			for _, path := range []string{"/does-not-exist", "/assets/", "/../../etc/passwd"} {
				resp, body, err := serverHelper.Get(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound), path)
				Expect(gjson.Get(body, "error").String()).To(Equal("Not Found"))
				Expect(gjson.Get(body, "timestamp").String()).To(MatchRegexp(timestampPattern))
			}
		})

		It("supports HEAD on probes", func() {
			resp, body, err := serverHelper.Do(http.MethodHead, "/health")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(BeEmpty())
		})

		It("rejects other methods with a JSON 405", func() {
			resp, body, err := serverHelper.Do(http.MethodDelete, "/api/status")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
			Expect(gjson.Get(body, "error").String()).To(Equal("Method Not Allowed"))
		})

		It("does not expose /metrics", func() {
			resp, _, err := serverHelper.Get("/metrics")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("with a configuration file", func() {
		BeforeEach(func() {
			configPath := helpers.WriteConfigYAML(tempDir, "staging", true)
			serverHelper = helpers.NewServerTestHelper(ctx, configPath, publicDir)
			Expect(serverHelper.StartServer()).To(Succeed())
			serverHelper.WaitForServerReady(10 * time.Second)
		})

		It("reports the configured environment everywhere", func() {
			for _, path := range []string{"/health", "/api", "/api/status"} {
				_, body, err := serverHelper.Get(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(gjson.Get(body, "environment").String()).To(Equal("staging"), path)
			}

			_, body, err := serverHelper.Get("/api")
			Expect(err).NotTo(HaveOccurred())
			Expect(gjson.Get(body, "hostname").String()).To(Equal("integration-host"))
		})

		It("exposes Prometheus metrics", func() {
			_, _, err := serverHelper.Get("/api")
			Expect(err).NotTo(HaveOccurred())

			resp, body, err := serverHelper.Get("/metrics")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring("hello_app_http_requests"))
			Expect(body).To(ContainSubstring(`route="/api"`))
			Expect(body).To(ContainSubstring("hello_app_process_goroutines"))
		})
	})
})
