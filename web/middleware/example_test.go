package middleware_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/adamwoolhether/tablero/web/errs"
	"github.com/adamwoolhether/tablero/web/middleware"
)

func ExampleCORS() {
	cors := middleware.CORS([]string{"https://tablero.example.com"})

	handler := cors(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		fmt.Fprint(w, "ok")
		return nil
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/airtable/projects", nil)
	r.Header.Set("Origin", "https://tablero.example.com")

	handler(r.Context(), w, r)

	fmt.Println(w.Header().Get("Access-Control-Allow-Origin"))
	fmt.Println(w.Body.String())
	// Output:
	// https://tablero.example.com
	// ok
}

func ExampleCheckOriginFunc() {
	check := middleware.CheckOriginFunc([]string{
		"https://tablero.example.com",
		"https://*.example.dev",
	})

	fmt.Println(check("https://tablero.example.com"))
	fmt.Println(check("https://preview.example.dev"))
	fmt.Println(check("https://other.com"))
	// Output:
	// true
	// true
	// false
}

func ExampleCSRF() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	csrf, err := middleware.CSRF(log)
	if err != nil {
		fmt.Println(err)
		return
	}

	handler := csrf(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		fmt.Fprint(w, "deleted")
		return nil
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/airtable/tasks/recT1", nil)
	r.Header.Set("Sec-Fetch-Site", "cross-site")
	handler(r.Context(), w, r)

	fmt.Println(w.Code)
	// Output: 403
}

func ExampleErrors() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	errMW := middleware.Errors(log)

	handler := errMW(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errs.Newf(http.StatusNotFound, "task %s not found", "recT9")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	handler(r.Context(), w, r)

	fmt.Println(w.Code)
	fmt.Println(w.Body.String())
	// Output:
	// 404
	// {"success":false,"error":"task recT9 not found"}
}

func ExamplePanics() {
	panics := middleware.Panics()

	handler := panics(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("unreachable")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	err := handler(r.Context(), w, r)

	fmt.Println(err != nil)
	// Output: true
}
