package mux_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/adamwoolhether/tablero/web/middleware"
	"github.com/adamwoolhether/tablero/web/mux"
)

func ExampleNew() {
	app := mux.New(mux.WithLogger(slog.Default()))

	app.Get("/healthz", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		fmt.Fprint(w, "ok")
		return nil
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	fmt.Println(w.Body.String())
	// Output: ok
}

func ExampleApp_Mount() {
	app := mux.New()

	api := app.Mount("/api/airtable")
	api.Get("/tasks", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		fmt.Fprint(w, mux.GetValues(ctx).Route)
		return nil
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/airtable/tasks?projectId=recP1", nil))

	fmt.Println(w.Body.String())
	// Output: GET /api/airtable/tasks
}

func ExampleApp_Group() {
	app := mux.New()

	api := app.Group()
	api.Use(func(handler mux.Handler) mux.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Cache-Control", "no-store")
			return handler(ctx, w, r)
		}
	})
	api.Get("/dashboard", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		fmt.Fprint(w, "fresh")
		return nil
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	fmt.Println(w.Header().Get("Cache-Control"))
	fmt.Println(w.Body.String())
	// Output:
	// no-store
	// fresh
}

func ExampleWithMiddleware() {
	// CORS is installed globally, the rest per route in priority order.
	app := mux.New(
		mux.WithMiddleware(
			middleware.Panics(),
			middleware.Errors(slog.Default()),
			middleware.CORS([]string{"*"}),
		),
	)

	app.Get("/projects", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("unexpected")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/projects", nil)
	r.Header.Set("Origin", "https://tablero.example.com")
	app.ServeHTTP(w, r)

	fmt.Println(w.Code)
	fmt.Println(w.Header().Get("Access-Control-Allow-Origin"))
	// Output:
	// 500
	// https://tablero.example.com
}
