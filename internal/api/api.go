// Package api binds the board service to the HTTP routes the dashboard
// frontend calls.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/tablero/board"
	"github.com/adamwoolhether/tablero/throttle"
	"github.com/adamwoolhether/tablero/web/middleware"
	"github.com/adamwoolhether/tablero/web/mux"
)

// Prefix is where the board routes are mounted.
const Prefix = "/api/airtable"

// Board is the part of [board.Service] the handlers use.
type Board interface {
	Projects(ctx context.Context, f board.ProjectFilter) ([]board.Project, error)
	TasksByProject(ctx context.Context, projectID string) ([]board.Task, error)
	CreateTask(ctx context.Context, projectID string, in board.TaskInput) (board.Task, error)
	UpdateTask(ctx context.Context, id string, patch board.TaskPatch, current *board.TaskState) (board.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ReorderTasks(ctx context.Context, updates []board.OrderUpdate) error
	UpdateProjectStatus(ctx context.Context, id, status string) error
	UpdateProjectDate(ctx context.Context, id, date string) error
	Dashboard(ctx context.Context, who board.Identity) (board.DashboardData, error)
}

var _ Board = (*board.Service)(nil)

// Config holds the dependencies of the HTTP surface. Queue, Tracer and
// Registry are optional.
type Config struct {
	Log            *slog.Logger
	Board          Board
	Queue          *throttle.Queue
	Tracer         trace.Tracer
	Registry       *prometheus.Registry
	AllowedOrigins []string
	Build          string
}

// Routes builds the application handler.
func Routes(cfg Config) (http.Handler, error) {
	if cfg.Board == nil {
		return nil, errors.New("api: board must not be nil")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	origins := splitOrigins(cfg.AllowedOrigins)

	csrf, err := middleware.CSRF(cfg.Log, origins...)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	opts := []mux.Option{
		mux.WithLogger(cfg.Log),
		mux.WithMiddleware(
			middleware.CORS(origins),
			csrf,
			middleware.Logger(cfg.Log),
			middleware.Metrics(cfg.Registry, "tablero"),
			middleware.Errors(cfg.Log),
			middleware.Panics(),
		),
	}
	if cfg.Tracer != nil {
		opts = append(opts, mux.WithTracer(cfg.Tracer))
	}
	app := mux.New(opts...)

	h := handlers{board: cfg.Board}
	chk := health{queue: cfg.Queue, build: cfg.Build}

	app.Get("/healthz", chk.healthz)
	app.Get("/metrics", mux.Adapt(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{Registry: cfg.Registry})))

	api := app.Mount(Prefix)
	api.Use(Identity())

	api.Get("/projects", h.projects)
	api.Patch("/projects", h.updateProject)

	api.Get("/tasks", h.tasks)
	api.Post("/tasks", h.createTask)
	api.Patch("/tasks/batch", h.reorderTasks)
	api.Patch("/tasks/{id}", h.updateTask)
	api.Delete("/tasks/{id}", h.deleteTask)

	api.Get("/dashboard", h.dashboard)

	return app, nil
}

func splitOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		for part := range strings.SplitSeq(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
