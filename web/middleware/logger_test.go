package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adamwoolhether/tablero/web/middleware"
	"github.com/adamwoolhether/tablero/web/mux"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	app := mux.New(mux.WithMiddleware(middleware.Logger(log), middleware.Errors(discard)))
	app.Get("/api/airtable/tasks", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/airtable/tasks?projectId=recP1", nil)
	r.RemoteAddr = "127.0.0.1:1234"
	app.ServeHTTP(w, r)

	output := buf.String()
	for _, want := range []string{
		"request started",
		"request completed",
		"method=GET",
		"path=\"/api/airtable/tasks?projectId=recP1\"",
		"route=\"GET /api/airtable/tasks\"",
		"statusCode=500",
		"level=WARN",
		"remoteaddr=127.0.0.1:1234",
		"trace_id=",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in log output: %s", want, output)
		}
	}
}

func TestLogger_InfoOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	app := mux.New(mux.WithMiddleware(middleware.Logger(log)))
	app.Get("/healthz", okHandler)

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("successful request logged at warn: %s", buf.String())
	}
}
