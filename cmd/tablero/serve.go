package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/adamwoolhether/tablero/airtable"
	"github.com/adamwoolhether/tablero/board"
	"github.com/adamwoolhether/tablero/client"
	"github.com/adamwoolhether/tablero/internal/api"
	cfgpkg "github.com/adamwoolhether/tablero/internal/config"
	"github.com/adamwoolhether/tablero/internal/metrics"
	"github.com/adamwoolhether/tablero/internal/telemetry"
	"github.com/adamwoolhether/tablero/throttle"
	"github.com/adamwoolhether/tablero/web/server"
)

// serve wires the process together and blocks until ctx is done.
func serve(ctx context.Context, cfg cfgpkg.Config, log *slog.Logger) error {
	tp, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: "tablero",
		Version:     build,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs := metrics.NewThrottle(reg)

	queueOpts := []throttle.Option{
		throttle.WithMinDelay(cfg.Throttle.MinDelay),
		throttle.WithLogger(log.With("component", "throttle")),
		throttle.WithObserver(obs),
	}
	if cfg.Throttle.Capacity > 0 {
		queueOpts = append(queueOpts, throttle.WithCapacity(cfg.Throttle.Capacity))
	}
	q, err := throttle.New(queueOpts...)
	if err != nil {
		return fmt.Errorf("creating queue: %w", err)
	}
	obs.Watch(q)

	hc, err := client.Build(
		client.WithTimeout(cfg.Airtable.Timeout),
		client.WithUserAgent("tablero/"+build),
		client.WithBearerToken(cfg.Airtable.Token),
		client.WithTracing(),
		client.WithThrottle(q),
		client.WithLogger(log.With("component", "client")),
	)
	if err != nil {
		return fmt.Errorf("building http client: %w", err)
	}

	at, err := airtable.New(hc, cfg.Airtable.BaseID,
		airtable.WithBaseURL(cfg.Airtable.BaseURL),
		airtable.WithRetry(cfg.Airtable.RetryMaxElapsed),
		airtable.WithLogger(log.With("component", "airtable")),
	)
	if err != nil {
		return fmt.Errorf("creating airtable client: %w", err)
	}

	svc, err := board.New(at,
		board.WithTables(board.Tables{
			Projects: cfg.Airtable.ProjectsTable,
			Tasks:    cfg.Airtable.TasksTable,
			Team:     cfg.Airtable.TeamTable,
		}),
		board.WithTeamTTL(cfg.Airtable.TeamTTL),
		board.WithLogger(log.With("component", "board")),
	)
	if err != nil {
		return fmt.Errorf("creating board: %w", err)
	}

	h, err := api.Routes(api.Config{
		Log:            log,
		Board:          svc,
		Queue:          q,
		Tracer:         tp.Tracer("github.com/adamwoolhether/tablero/web"),
		Registry:       reg,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Build:          build,
	})
	if err != nil {
		return err
	}

	// Hooks run in reverse: the queue closes before the tracer flushes.
	srv := server.New(h,
		server.WithHost(cfg.HTTP.Addr),
		server.WithReadTimeout(cfg.HTTP.ReadTimeout),
		server.WithWriteTimeout(cfg.HTTP.WriteTimeout),
		server.WithIdleTimeout(cfg.HTTP.IdleTimeout),
		server.WithShutdownTimeout(cfg.HTTP.ShutdownTimeout),
		server.WithLogger(log),
		server.WithShutdownFunc("tracer", tp.Shutdown),
		server.WithShutdownFunc("airtable queue", q.Close),
	)

	log.Info("starting", "addr", cfg.HTTP.Addr, "build", build, "min_delay", q.MinDelay())

	return srv.Run(ctx)
}
