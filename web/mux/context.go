package mux

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type valuesKey struct{}

// BaseValues holds per-request values shared by the middleware stack.
// Route is the registered pattern, such as "GET /api/tasks", and is safe to
// use as a metrics label.
type BaseValues struct {
	TraceID    string
	Route      string
	Now        time.Time
	Tracer     trace.Tracer
	StatusCode int
}

func lookup(ctx context.Context) (*BaseValues, bool) {
	v, ok := ctx.Value(valuesKey{}).(*BaseValues)
	return v, ok
}

// SetStatusCode records the status written for the request. It is a no-op
// outside a request.
func SetStatusCode(ctx context.Context, statusCode int) {
	if v, ok := lookup(ctx); ok {
		v.StatusCode = statusCode
	}
}

// GetValues returns the request's values. Outside a request it returns a
// fresh placeholder carrying the nil trace ID and a no-op tracer.
func GetValues(ctx context.Context) *BaseValues {
	if v, ok := lookup(ctx); ok {
		return v
	}

	return &BaseValues{
		TraceID: uuid.Nil.String(),
		Tracer:  noop.NewTracerProvider().Tracer(""),
		Now:     time.Now(),
	}
}

// GetTraceID is shorthand for GetValues(ctx).TraceID.
func GetTraceID(ctx context.Context) string {
	if v, ok := lookup(ctx); ok {
		return v.TraceID
	}

	return uuid.Nil.String()
}

// AddSpan starts a child span named name on the request's tracer. Without
// one it hands back the span already in ctx.
func AddSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	v, ok := lookup(ctx)
	if !ok || v.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return v.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func setValues(ctx context.Context, v *BaseValues) context.Context {
	return context.WithValue(ctx, valuesKey{}, v)
}
