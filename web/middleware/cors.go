package middleware

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/adamwoolhether/tablero/web"
	"github.com/adamwoolhether/tablero/web/errs"
	"github.com/adamwoolhether/tablero/web/mux"
)

// DefaultAllowHeaders is the set of headers permitted in cross-origin
// requests when no custom list is given to CORS. It includes the identity
// headers the dashboard frontend forwards.
var DefaultAllowHeaders = []string{
	"Authorization",
	"Content-Type",
	"Accept",
	"Cache-Control",
	"X-Requested-With",
	"X-User-Role",
	"X-Airtable-Id",
}

// CORS answers cross-origin requests from allowedOrigins, which may contain
// path.Match wildcards or "*". Preflight requests are answered directly.
// Requests without an Origin header pass through untouched.
func CORS(allowedOrigins []string, allowedHeaders ...string) mux.Middleware {
	if len(allowedHeaders) == 0 {
		allowedHeaders = DefaultAllowHeaders
	}

	originAllowed := CheckOriginFunc(allowedOrigins)
	headers := strings.Join(allowedHeaders, ", ")

	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return handler(ctx, w, r)
			}

			if !originAllowed(origin) {
				return web.RespondError(ctx, w, errs.Newf(http.StatusForbidden, "CORS origin[%s] not allowed", origin))
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS, POST, PATCH, DELETE")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Access-Control-Allow-Headers", headers)

			if r.Method == http.MethodOptions {
				return web.RespondJSON(ctx, w, http.StatusNoContent, nil)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// CheckOriginFunc loads the list of allowed origins, and returns a func that determines
// if the given origin is valid against the allowable list.
func CheckOriginFunc(allowedOrigins []string) func(string) bool {
	// A comma-separated entry is split, so "a,b" from an env var works.
	var separated []string
	for _, o := range allowedOrigins {
		for part := range strings.SplitSeq(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				separated = append(separated, part)
			}
		}
	}

	allowed := make(map[string]bool)
	var wildcards []string

	for _, o := range separated {
		switch {
		case o == "*":
			allowed["*"] = true
		case strings.Contains(o, "*"):
			wildcards = append(wildcards, o)
		default:
			allowed[o] = true
		}
	}
	allowAll := allowed["*"]

	return func(origin string) bool {
		if allowAll || allowed[origin] {
			return true
		}
		for _, o := range wildcards {
			if ok, err := path.Match(o, origin); ok && err == nil {
				return true
			}
		}
		return false
	}
}
