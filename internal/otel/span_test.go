package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer(t *testing.T) (*tracetest.SpanRecorder, trace.Tracer) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder, tp.Tracer("hello-app-test")
}

func TestStartSpan_WithoutTracer(t *testing.T) {
	t.Parallel()

	parent := context.Background()
	ctx, span := StartSpan(parent, nil, "report.health")

	assert.Equal(t, parent, ctx)
	require.NotNil(t, span)
	assert.False(t, span.SpanContext().IsValid())
	assert.NotPanics(t, func() { span.End() })
}

func TestStartSpan_Attributes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		span  string
		attrs []attribute.KeyValue
	}{
		{
			name:  "health report",
			span:  "report.health",
			attrs: []attribute.KeyValue{AttrReportKind.String("health"), AttrEnvironment.String("staging")},
		},
		{
			name:  "status report",
			span:  "report.status",
			attrs: []attribute.KeyValue{AttrReportKind.String("status"), AttrHeapUsedBytes.Int64(4096)},
		},
		{
			name:  "static file",
			span:  "static.serve",
			attrs: []attribute.KeyValue{AttrStaticPath.String("/index.html")},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder, tracer := newRecordingTracer(t)

			ctx, span := StartSpan(context.Background(), tracer, tt.span, trace.WithAttributes(tt.attrs...))
			assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
			span.End()

			ended := recorder.Ended()
			require.Len(t, ended, 1)
			assert.Equal(t, tt.span, ended[0].Name())
			assert.ElementsMatch(t, tt.attrs, ended[0].Attributes())
		})
	}
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantCode   codes.Code
		wantEvents int
	}{
		{name: "nil error leaves span untouched", err: nil, wantCode: codes.Unset, wantEvents: 0},
		{name: "error marks span failed", err: errors.New("write report: broken pipe"), wantCode: codes.Error, wantEvents: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder, tracer := newRecordingTracer(t)
			_, span := tracer.Start(context.Background(), "report.status")
			RecordError(span, tt.err)
			span.End()

			ended := recorder.Ended()
			require.Len(t, ended, 1)
			assert.Equal(t, tt.wantCode, ended[0].Status().Code)
			require.Len(t, ended[0].Events(), tt.wantEvents)
			if tt.err != nil {
				assert.Equal(t, "operation failed", ended[0].Status().Description)
				assert.Equal(t, "exception", ended[0].Events()[0].Name)
			}
		})
	}
}

func TestRecordError_NilSpan(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordError(nil, errors.New("boom")) })
}
