package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/adamwoolhether/tablero/web"
	"github.com/adamwoolhether/tablero/web/errs"
	"github.com/adamwoolhether/tablero/web/middleware"
	"github.com/adamwoolhether/tablero/web/mux"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	app := mux.New(mux.WithMiddleware(
		middleware.Errors(discard),
		middleware.Metrics(reg, "tablero"),
	))
	app.Get("/api/airtable/tasks", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if r.URL.Query().Get("projectId") == "" {
			return errs.Newf(http.StatusBadRequest, "projectId is required")
		}
		return web.RespondData(ctx, w, http.StatusOK, []string{})
	})

	for _, target := range []string{
		"/api/airtable/tasks?projectId=recP1",
		"/api/airtable/tasks?projectId=recP2",
		"/api/airtable/tasks",
	} {
		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	exp := `
# HELP tablero_http_requests_total HTTP requests served, by route and status code.
# TYPE tablero_http_requests_total counter
tablero_http_requests_total{code="200",route="GET /api/airtable/tasks"} 2
tablero_http_requests_total{code="400",route="GET /api/airtable/tasks"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(exp), "tablero_http_requests_total"); err != nil {
		t.Fatal(err)
	}

	if n := testutil.CollectAndCount(reg, "tablero_http_request_duration_seconds"); n != 1 {
		t.Fatalf("exp one latency series, got: %d", n)
	}
}
