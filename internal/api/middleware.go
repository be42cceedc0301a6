package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/iwishiwala/devops-task/internal/api/common"
	"github.com/iwishiwala/devops-task/internal/logger"
	"github.com/iwishiwala/devops-task/internal/otel"
)

// LoggingMiddleware logs every inbound request before it is routed, and a
// debug line with the outcome once it completes.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())

		logger.Get().Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("request_id", reqID),
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Debugf("HTTP %s %s %d %s %s",
			r.Method,
			r.URL.Path,
			ww.Status(),
			time.Since(start),
			reqID,
		)
	})
}

// ErrorMiddleware recovers panics raised further down the chain. The panic
// and its stack are logged; the client only sees a generic 500.
func ErrorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity, as net/http does
				panic(rvr)
			}

			otel.RecordError(trace.SpanFromContext(r.Context()), fmt.Errorf("panic: %v", rvr))
			logger.Get().Error("Recovered from panic",
				zap.Any("panic", rvr),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.ByteString("stack", debug.Stack()),
			)

			if ww.Status() == 0 {
				common.WriteInternalError(ww)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}
