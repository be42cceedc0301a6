// Package otel provides OpenTelemetry span helpers shared by the HTTP handlers.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys recorded on report spans
const (
	AttrReportKind    = attribute.Key("report.kind")
	AttrEnvironment   = attribute.Key("deployment.environment")
	AttrHeapUsedBytes = attribute.Key("process.heap.used_bytes")
	AttrStaticPath    = attribute.Key("static.path")
)

// StartSpan starts a span on tracer. With a nil tracer it hands back the
// span already in ctx, which is a no-op span when tracing is off.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. The error text goes on the exception
// event only; the status description stays generic. Nil span or nil error
// is a no-op.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
