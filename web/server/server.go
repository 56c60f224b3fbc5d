package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"
)

// Server wraps an [http.Server] with context-driven graceful shutdown.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	hooks           []hook
}

// New creates a Server for the given handler. Requests may wait on the
// Airtable queue for a while, so the default write timeout is generous.
func New(handler http.Handler, opts ...Option) *Server {
	o := options{
		host:            ":8080",
		readTimeout:     5 * time.Second,
		writeTimeout:    60 * time.Second,
		idleTimeout:     120 * time.Second,
		shutdownTimeout: 20 * time.Second,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	srv := &http.Server{
		Addr:              o.host,
		Handler:           handler,
		ReadTimeout:       o.readTimeout,
		ReadHeaderTimeout: o.readTimeout,
		WriteTimeout:      o.writeTimeout,
		IdleTimeout:       o.idleTimeout,
		ErrorLog:          slog.NewLogLogger(o.logger.Handler(), slog.LevelWarn),
	}

	return &Server{
		srv:             srv,
		shutdownTimeout: o.shutdownTimeout,
		logger:          o.logger,
		hooks:           o.hooks,
	}
}

// Run listens on the configured host and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the shutdown timeout. It returns nil on a clean
// shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serverErrs := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", ln.Addr().String())
		serverErrs <- s.srv.Serve(ln)
	}()

	select {
	case err := <-serverErrs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown started", "cause", context.Cause(ctx))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		s.logger.Info("shutdown complete")

		return nil
	}
}

// Shutdown drains in-flight requests, then runs the registered shutdown
// hooks in reverse registration order. Hook failures are logged and
// returned together; they do not stop later hooks from running.
func (s *Server) Shutdown(ctx context.Context) error {
	var errList []error

	if err := s.srv.Shutdown(ctx); err != nil {
		s.srv.Close()
		errList = append(errList, fmt.Errorf("server didn't stop gracefully: %w", err))
	}

	for _, h := range slices.Backward(s.hooks) {
		if err := h.fn(ctx); err != nil {
			s.logger.Error("shutdown hook", "hook", h.name, "error", err)
			errList = append(errList, fmt.Errorf("%s: %w", h.name, err))
		}
	}

	return errors.Join(errList...)
}
