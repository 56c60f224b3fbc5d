package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/tablero/web/mux"
)

// Logger logs each request as it starts and as it completes, tagged with
// its trace ID. A 5xx completion is logged at warn level.
func Logger(log *slog.Logger) mux.Middleware {
	return func(next mux.Handler) mux.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := mux.GetValues(ctx)

			target := r.URL.Path
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}

			l := log.With("trace_id", v.TraceID, "method", r.Method, "path", target, "remoteaddr", r.RemoteAddr)
			l.Info("request started")

			err := next(ctx, w, r)

			lvl := slog.LevelInfo
			if v.StatusCode >= http.StatusInternalServerError {
				lvl = slog.LevelWarn
			}
			l.Log(ctx, lvl, "request completed", "route", v.Route, "statusCode", v.StatusCode, "since", time.Since(v.Now).String())

			return err
		}
	}
}
