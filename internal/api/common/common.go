// Package common provides the JSON writers and handler adapter shared by
// the API route packages.
package common

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/iwishiwala/devops-task/internal/logger"
	"github.com/iwishiwala/devops-task/internal/otel"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ErrorResponse is the body of every non-2xx JSON answer
type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// HandlerFunc is an http.HandlerFunc that can fail
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Timestamp formats t with TimestampLayout
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Handle adapts an error-returning handler. A returned error is logged and
// answered with a generic 500, the same way a recovered panic is.
func Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			otel.RecordError(trace.SpanFromContext(r.Context()), err)
			logger.Errorf("Request %s %s failed (request_id=%s): %v",
				r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
			WriteInternalError(w)
		}
	}
}

// WriteJSONResponse writes a JSON response with the given data
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// WriteErrorResponse writes a standardized error response
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, ErrorResponse{
		Error:     message,
		Timestamp: Timestamp(time.Now()),
	}, statusCode)
}

// WriteInternalError answers 500 without exposing any detail
func WriteInternalError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// WriteNotFound answers 404
func WriteNotFound(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}
