package telemetry

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Route labels used when chi's pattern would say nothing useful
const (
	// RouteStatic covers every request answered by the static file handler
	RouteStatic = "static"
	// RouteUnmatched covers requests no route matched (404s, 405s)
	RouteUnmatched = "unmatched"
)

// ScrapePath is where Prometheus scrapes. Its own requests are neither
// counted nor traced.
const ScrapePath = "/metrics"

// probePaths maps the orchestrator probe endpoints to their probe label
var probePaths = map[string]string{
	"/health": "health",
	"/ready":  "ready",
	"/live":   "live",
}

// probeName reports whether path is a probe endpoint and which one
func probeName(path string) (string, bool) {
	name, ok := probePaths[path]
	return name, ok
}

// routeLabel names the route r was served by. It must be called after the
// router has run, since chi fills in the pattern while routing.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return RouteUnmatched
	}
	switch pattern := rctx.RoutePattern(); pattern {
	case "":
		return RouteUnmatched
	case "/", "/*":
		return RouteStatic
	default:
		return pattern
	}
}
