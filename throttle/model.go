package throttle

import (
	"context"
	"errors"
	"time"
)

// DefaultMinDelay keeps a queue under five requests per second with a small
// safety margin.
const DefaultMinDelay = 220 * time.Millisecond

var (
	ErrMustNotBeZero     = errors.New("must be greater than zero")
	ErrMustNotBeNegative = errors.New("must not be negative")
	ErrContextEnded      = errors.New("throttle context ended")

	// ErrQueueCleared is delivered to every unit still pending when
	// [Queue.Clear] is called.
	ErrQueueCleared = errors.New("throttle: queue cleared")
	// ErrQueueFull is delivered immediately when a bounded queue is at capacity.
	ErrQueueFull = errors.New("throttle: queue full")
	// ErrClosed is delivered to pending and new units once [Queue.Close] is called.
	ErrClosed = errors.New("throttle: queue closed")
	// ErrCanceled is delivered to a unit withdrawn through [Future.Cancel].
	ErrCanceled = errors.New("throttle: unit canceled")
	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New("throttle: task panicked")
)

// Task is a unit of remote work. It receives the context it was submitted
// with and is invoked at most once, when the queue dispatches it.
type Task[T any] func(ctx context.Context) (T, error)

// Observer receives queue lifecycle events. Implementations must be safe
// for concurrent use and must not block.
type Observer interface {
	// Enqueued is called after a unit joins the queue.
	Enqueued(pending int)
	// Dispatched is called when a unit leaves the queue, with the time it spent waiting.
	Dispatched(queued time.Duration)
	// Completed is called when a dispatched unit finishes.
	Completed(took time.Duration, err error)
	// Canceled is called when n pending units are resolved without running.
	Canceled(n int, reason error)
}

type noopObserver struct{}

func (noopObserver) Enqueued(int)                   {}
func (noopObserver) Dispatched(time.Duration)       {}
func (noopObserver) Completed(time.Duration, error) {}
func (noopObserver) Canceled(int, error)            {}

// unit is a queued piece of work with its result type erased, so a single
// Queue can carry futures of any type.
type unit struct {
	enqueued time.Time
	run      func() error
	fail     func(err error)
}
