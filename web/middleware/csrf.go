package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adamwoolhether/tablero/web"
	"github.com/adamwoolhether/tablero/web/errs"
	"github.com/adamwoolhether/tablero/web/mux"
)

// CSRF rejects cross-origin state-changing browser requests using the
// standard library CrossOriginProtection. trustedOrigins are let through and
// may use the same wildcards as CORS. Requests without browser fetch
// metadata, such as server-to-server calls, are unaffected.
func CSRF(logger *slog.Logger, trustedOrigins ...string) (mux.Middleware, error) {
	cop := http.NewCrossOriginProtection()

	var wildcards []string
	for _, origin := range trustedOrigins {
		if strings.Contains(origin, "*") {
			wildcards = append(wildcards, origin)
			continue
		}
		if err := cop.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("trusted origin %q: %w", origin, err)
		}
	}
	wildcardTrusted := CheckOriginFunc(wildcards)

	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if err := cop.Check(r); err != nil {
				if origin := r.Header.Get("Origin"); origin != "" && wildcardTrusted(origin) {
					return handler(ctx, w, r)
				}

				logger.Warn("csrf check failed", "trace_id", mux.GetTraceID(ctx), "origin", r.Header.Get("Origin"), "error", err)
				return web.RespondError(ctx, w, errs.New(http.StatusForbidden, err))
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m, nil
}
