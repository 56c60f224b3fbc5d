package throttle

import (
	"fmt"
	"log/slog"
	"time"
)

// Option is a functional option for configuring a [Queue] via [New].
type Option func(*options) error

type options struct {
	minDelay *time.Duration
	capacity int
	logger   *slog.Logger
	observer Observer
}

// WithMinDelay sets the minimum spacing between two dispatch starts.
// Default is [DefaultMinDelay]. Zero disables spacing but keeps the
// queue single-flight.
func WithMinDelay(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return fmt.Errorf("min delay[%v] %w", d, ErrMustNotBeNegative)
		}
		o.minDelay = &d
		return nil
	}
}

// WithCapacity bounds the number of pending units. Submissions beyond the
// bound fail immediately with [ErrQueueFull]. The default is unbounded.
func WithCapacity(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("capacity[%d] %w", n, ErrMustNotBeZero)
		}
		o.capacity = n
		return nil
	}
}

// WithLogger sets the logger used for queue events. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithObserver registers an [Observer] for queue lifecycle events.
func WithObserver(obs Observer) Option {
	return func(o *options) error {
		o.observer = obs
		return nil
	}
}
