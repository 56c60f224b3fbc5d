// Package mux routes requests to error-returning handlers, running each
// inside a span with per-request [BaseValues].
package mux

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Handler is an http.Handler that returns an error.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Middleware wraps a Handler.
type Middleware func(handler Handler) Handler

// App registers routes on a shared ServeMux. Apps derived with Group or
// Mount share the ServeMux but carry their own middleware and prefix.
type App struct {
	mux      *http.ServeMux
	globalMW []Middleware
	mw       []Middleware
	prefix   string
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates an App. Without options it logs to slog.Default and traces
// with a no-op tracer.
func New(optFns ...Option) *App {
	opts := options{logger: slog.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.tracer == nil {
		opts.tracer = noop.NewTracerProvider().Tracer("")
	}

	return &App{
		mux:      http.NewServeMux(),
		globalMW: opts.globalMW,
		mw:       opts.mw,
		logger:   opts.logger,
		tracer:   opts.tracer,
	}
}

// ServeHTTP runs the global middleware around the ServeMux.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := chain(a.globalMW, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		a.mux.ServeHTTP(w, r.WithContext(ctx))
		return nil
	})

	if err := h(r.Context(), w, r); err != nil {
		a.logger.Error("serve http", "error", err)
	}
}

// Group returns a copy of a whose middleware can grow independently.
func (a *App) Group() *App {
	g := *a
	g.mw = slices.Clone(a.mw)
	return &g
}

// Mount returns a Group whose routes live under prefix.
func (a *App) Mount(prefix string) *App {
	g := a.Group()
	if p := strings.Trim(prefix, "/"); p != "" {
		g.prefix = "/" + p
	}
	return g
}

// Use appends middleware for routes registered after the call.
func (a *App) Use(mw ...Middleware) {
	a.mw = append(a.mw, mw...)
}

func (a *App) Get(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, fn, mw...)
}

func (a *App) Post(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodPost, path, fn, mw...)
}

func (a *App) Patch(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodPatch, path, fn, mw...)
}

func (a *App) Delete(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodDelete, path, fn, mw...)
}

// Handle registers fn for method and path under the App's prefix. The
// App's middleware runs outside the route's own mw.
func (a *App) Handle(method, path string, fn Handler, mw ...Middleware) {
	rt := &route{
		app:     a,
		path:    a.prefix + path,
		handler: chain(a.mw, chain(mw, fn)),
	}
	rt.pattern = method + " " + rt.path

	a.mux.Handle(rt.pattern, rt)
}

type route struct {
	app     *App
	pattern string
	path    string
	handler Handler
}

func (rt *route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := rt.app.tracer.Start(r.Context(), rt.pattern, trace.WithAttributes(
		attribute.String("http.route", rt.path),
		attribute.String("path", r.RequestURI),
	))
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(w.Header()))

	v := &BaseValues{
		TraceID: traceID(span),
		Route:   rt.pattern,
		Now:     time.Now().UTC(),
		Tracer:  rt.app.tracer,
	}
	ctx = setValues(ctx, v)

	if err := rt.handler(ctx, w, r.WithContext(ctx)); err != nil {
		rt.app.logger.Error("handle", "route", rt.pattern, "error", err)
	}
}

// traceID prefers the span's ID and falls back to a random UUID when the
// tracer does not record.
func traceID(span trace.Span) string {
	if id := span.SpanContext().TraceID(); id.IsValid() {
		return id.String()
	}
	return uuid.NewString()
}

// chain wraps h so that mw[0] runs first.
func chain(mw []Middleware, h Handler) Handler {
	for _, m := range slices.Backward(mw) {
		if m != nil {
			h = m(h)
		}
	}
	return h
}
