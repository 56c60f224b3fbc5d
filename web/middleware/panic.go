package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/tablero/web/mux"
)

// Panics turns a panicking handler into an error carrying the stack, for
// Errors to answer with a 500. The request span is marked failed.
func Panics() mux.Middleware {
	return func(next mux.Handler) mux.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())

				span := trace.SpanFromContext(ctx)
				span.RecordError(err)
				span.SetStatus(codes.Error, "panic")
			}()

			return next(ctx, w, r)
		}
	}
}
