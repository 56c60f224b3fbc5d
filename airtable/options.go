package airtable

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Option is a functional option for configuring a [Client] via [New].
type Option func(*options) error

type options struct {
	baseURL    *url.URL
	maxElapsed *time.Duration
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// WithBaseURL points the client at a different API root, such as a proxy
// or a test server.
func WithBaseURL(raw string) Option {
	return func(o *options) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base url %q must be absolute", raw)
		}
		o.baseURL = u
		return nil
	}
}

// WithRetry bounds how long a rate-limited or failing call keeps being
// retried with exponential backoff. Zero disables retries.
func WithRetry(maxElapsed time.Duration) Option {
	return func(o *options) error {
		if maxElapsed < 0 {
			return errors.New("max elapsed must not be negative")
		}
		o.maxElapsed = &maxElapsed
		return nil
	}
}

// WithBackOff replaces the retry policy entirely. fn is called once per
// API call to obtain a fresh policy.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(o *options) error {
		if fn == nil {
			return errors.New("backoff func must not be nil")
		}
		o.newBackOff = fn
		return nil
	}
}

// WithLogger sets the logger used for retry notices. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
