package mux

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Option configures an App.
type Option func(*options)

type options struct {
	tracer   trace.Tracer
	logger   *slog.Logger
	globalMW []Middleware
	mw       []Middleware
}

// slot places a known middleware in the stack. Global middleware wraps the
// ServeMux, so it also sees unmatched routes and preflight requests.
type slot struct {
	rank   int
	global bool
}

var slots = map[string]slot{
	"CORS":    {rank: 1, global: true},
	"CSRF":    {rank: 2, global: true},
	"Logger":  {rank: 3},
	"Metrics": {rank: 4},
	"Errors":  {rank: 5},
	"Panics":  {rank: 100},
}

// Middleware not listed in slots, such as Identity, lands after Errors so
// the errors it returns get rendered.
var customSlot = slot{rank: 6}

// WithMiddleware orders mw by the constructor that built each one, whatever
// order they are passed in, and splits them into global and route stacks.
func WithMiddleware(mw ...Middleware) Option {
	type ranked struct {
		rank int
		fn   Middleware
	}

	var global, local []ranked
	for _, m := range mw {
		s, ok := slots[constructor(m)]
		if !ok {
			s = customSlot
		}
		if s.global {
			global = append(global, ranked{s.rank, m})
		} else {
			local = append(local, ranked{s.rank, m})
		}
	}

	order := func(in []ranked) []Middleware {
		slices.SortStableFunc(in, func(a, b ranked) int { return cmp.Compare(a.rank, b.rank) })
		out := make([]Middleware, 0, len(in))
		for _, r := range in {
			out = append(out, r.fn)
		}
		return out
	}

	return func(o *options) {
		o.globalMW = order(global)
		o.mw = order(local)
	}
}

// WithTracer sets the tracer that opens each route's span.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithLogger sets where handler errors that escape every middleware are
// logged. A nil logger is ignored.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// Adapt lets a plain http.Handler, such as promhttp, be registered as a route.
func Adapt(h http.Handler) Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r.WithContext(ctx))
		return nil
	}
}

// constructor names the function that returned mw:
// ".../web/middleware.CORS.func1" yields "CORS".
func constructor(mw Middleware) string {
	fn := runtime.FuncForPC(reflect.ValueOf(mw).Pointer()).Name()
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		fn = fn[i+1:]
	}

	parts := strings.Split(fn, ".")
	if len(parts) < 2 {
		return fn
	}
	return parts[1]
}
