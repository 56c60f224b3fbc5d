package throttle

import (
	"context"
	"fmt"
	"sync"
)

// Future is the eventual outcome of a submitted [Task]. It resolves exactly
// once, either with the task's own result or with one of the queue's errors
// if the task never ran.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error

	q *Queue
	u *unit
}

// Submit appends task to the tail of q and returns its Future. The task is
// not invoked until the queue dispatches it. A closed or full queue yields a
// Future that is already resolved with [ErrClosed] or [ErrQueueFull].
func Submit[T any](ctx context.Context, q *Queue, task Task[T]) *Future[T] {
	f := &Future[T]{
		done: make(chan struct{}),
		q:    q,
	}

	f.u = &unit{
		run: func() error {
			val, err := task(ctx)
			f.resolve(val, err)
			return err
		},
		fail: func(err error) {
			var zero T
			f.resolve(zero, err)
		},
	}

	if err := q.push(f.u); err != nil {
		f.u.fail(err)
	}

	return f
}

// Do submits task to q and waits for its outcome. It behaves like calling
// the task directly, plus whatever delay the queue imposes.
func Do[T any](ctx context.Context, q *Queue, task Task[T]) (T, error) {
	return Submit(ctx, q, task).Wait(ctx)
}

// Done returns a channel that is closed once the Future is resolved.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the Future resolves and returns the task's value and
// error unchanged.
//
// If ctx ends while the unit is still pending, the unit is withdrawn and
// Wait returns an error matching both [ErrContextEnded] and ctx.Err(). Once
// dispatched, a unit always runs to completion and Wait returns its result.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
	}

	if f.q.remove(f.u) {
		reason := fmt.Errorf("%w before dispatch: %w", ErrContextEnded, ctx.Err())
		f.u.fail(reason)
		f.q.observer.Canceled(1, reason)
	}

	<-f.done
	return f.val, f.err
}

// Cancel withdraws the unit if it is still pending, resolving the Future
// with [ErrCanceled]. It reports false once the unit has been dispatched or
// resolved.
func (f *Future[T]) Cancel() bool {
	if !f.q.remove(f.u) {
		return false
	}

	f.u.fail(ErrCanceled)
	f.q.observer.Canceled(1, ErrCanceled)

	return true
}

func (f *Future[T]) resolve(val T, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}
