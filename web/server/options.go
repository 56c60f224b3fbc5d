package server

import (
	"context"
	"log/slog"
	"time"
)

// Option configures a Server.
type Option func(*options)

type options struct {
	host            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	hooks           []hook
}

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// WithHost sets the address the server listens on. Default is ":8080".
func WithHost(host string) Option {
	return func(opts *options) {
		if host != "" {
			opts.host = host
		}
	}
}

// WithReadTimeout bounds reading the request headers and body. Default is 5s.
func WithReadTimeout(d time.Duration) Option {
	return func(opts *options) {
		if d > 0 {
			opts.readTimeout = d
		}
	}
}

// WithWriteTimeout bounds writing the response. Default is 60s.
func WithWriteTimeout(d time.Duration) Option {
	return func(opts *options) {
		if d > 0 {
			opts.writeTimeout = d
		}
	}
}

// WithIdleTimeout sets how long keep-alive connections may sit idle.
// Default is 120s.
func WithIdleTimeout(d time.Duration) Option {
	return func(opts *options) {
		if d > 0 {
			opts.idleTimeout = d
		}
	}
}

// WithShutdownTimeout bounds the graceful shutdown performed by
// [Server.Serve]. Default is 20s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(opts *options) {
		if d > 0 {
			opts.shutdownTimeout = d
		}
	}
}

// WithLogger sets the logger used for server lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		if log != nil {
			opts.logger = log
		}
	}
}

// WithShutdownFunc registers a named hook that runs after in-flight
// requests have drained. Hooks run in reverse registration order, so a
// dependency registered first is released last.
func WithShutdownFunc(name string, fn func(ctx context.Context) error) Option {
	return func(opts *options) {
		opts.hooks = append(opts.hooks, hook{name: name, fn: fn})
	}
}
