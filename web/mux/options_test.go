package mux_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adamwoolhether/tablero/web/errs"
	"github.com/adamwoolhether/tablero/web/middleware"
	"github.com/adamwoolhether/tablero/web/mux"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func requireRole(handler mux.Handler) mux.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if r.Header.Get("X-User-Role") == "" {
			return errs.Newf(http.StatusUnauthorized, "missing role")
		}
		return handler(ctx, w, r)
	}
}

func TestWithMiddleware_GlobalCORS(t *testing.T) {
	app := mux.New(mux.WithMiddleware(middleware.CORS([]string{"https://tablero.example.com"})))
	app.Get("/api/airtable/projects", writeBody("ok"))

	// Preflight requests match no route, so only global middleware can answer them.
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/airtable/projects", nil)
	r.Header.Set("Origin", "https://tablero.example.com")
	app.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://tablero.example.com" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestWithMiddleware_GlobalCSRF(t *testing.T) {
	csrf, err := middleware.CSRF(discard)
	if err != nil {
		t.Fatal(err)
	}

	app := mux.New(mux.WithMiddleware(csrf))
	app.Delete("/api/airtable/tasks/{id}", writeBody("deleted"))

	testCases := map[string]struct {
		site string
		code int
	}{
		"sameOrigin": {site: "same-origin", code: http.StatusOK},
		"crossSite":  {site: "cross-site", code: http.StatusForbidden},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodDelete, "/api/airtable/tasks/recT1", nil)
			r.Header.Set("Sec-Fetch-Site", tc.site)
			app.ServeHTTP(w, r)

			if w.Code != tc.code {
				t.Fatalf("status = %d, want %d", w.Code, tc.code)
			}
		})
	}
}

func TestWithMiddleware_CustomAfterErrors(t *testing.T) {
	// Passed out of order on purpose; Errors must still wrap requireRole.
	app := mux.New(mux.WithMiddleware(requireRole, middleware.Panics(), middleware.Errors(discard)))
	app.Get("/api/airtable/dashboard", writeBody("ok"))

	testCases := map[string]struct {
		role string
		code int
		body string
	}{
		"noRole":   {code: http.StatusUnauthorized, body: `{"success":false,"error":"missing role"}`},
		"withRole": {role: "admin", code: http.StatusOK, body: "ok"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/airtable/dashboard", nil)
			if tc.role != "" {
				r.Header.Set("X-User-Role", tc.role)
			}
			app.ServeHTTP(w, r)

			if w.Code != tc.code {
				t.Fatalf("status = %d, want %d", w.Code, tc.code)
			}
			if w.Body.String() != tc.body {
				t.Fatalf("body = %q, want %q", w.Body.String(), tc.body)
			}
		})
	}
}

func TestWithMiddleware_PanicsInnermost(t *testing.T) {
	app := mux.New(mux.WithMiddleware(middleware.Panics(), middleware.Errors(discard), middleware.Logger(discard)))
	app.Get("/boom", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestWithTracer_Default(t *testing.T) {
	app := mux.New()

	var ok bool
	app.Get("/ok", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ok = mux.GetValues(ctx).Tracer != nil
		return nil
	})
	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	if !ok {
		t.Fatal("handler should see a non-nil tracer")
	}
}
