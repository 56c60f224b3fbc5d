package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Queue is a single-flight FIFO request queue. It is safe for concurrent
// use; the zero value is not usable, construct one with [New].
type Queue struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	capacity int
	logger   *slog.Logger
	observer Observer

	// lastStart is when the previous unit started. Only the drain loop
	// touches it; successive loops are ordered by mu.
	lastStart time.Time

	mu       sync.Mutex
	pending  []*unit
	draining bool
	closed   bool

	wake chan struct{}
	wg   sync.WaitGroup
}

// New returns an empty Queue configured by the given options.
func New(optFns ...Option) (*Queue, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying throttle option: %w", err)
		}
	}

	q := Queue{
		minDelay: DefaultMinDelay,
		capacity: opts.capacity,
		logger:   slog.Default(),
		observer: noopObserver{},
		wake:     make(chan struct{}, 1),
	}

	if opts.minDelay != nil {
		q.minDelay = *opts.minDelay
	}
	if opts.logger != nil {
		q.logger = opts.logger
	}
	if opts.observer != nil {
		q.observer = opts.observer
	}

	// A full single-token bucket lets the very first dispatch through
	// immediately and spaces every later one by minDelay.
	q.limiter = rate.NewLimiter(rate.Every(q.minDelay), 1)

	return &q, nil
}

// MinDelay returns the configured spacing between dispatch starts.
func (q *Queue) MinDelay() time.Duration {
	return q.minDelay
}

// Capacity returns the pending-unit bound, or zero when unbounded.
func (q *Queue) Capacity() int {
	return q.capacity
}

// PendingCount returns the number of units waiting to be dispatched. The
// unit currently running, if any, is not included.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// Clear fails every pending unit with [ErrQueueCleared]. A unit that is
// already running is unaffected and resolves normally.
func (q *Queue) Clear() {
	q.mu.Lock()
	cleared := q.pending
	q.pending = nil
	q.mu.Unlock()

	q.failAll(cleared, ErrQueueCleared)
}

// Close stops the queue from accepting work, fails every pending unit with
// [ErrClosed] and waits for the running unit to finish or ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	q.failAll(pending, ErrClosed)

	idle := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w while closing: %w", ErrContextEnded, ctx.Err())
	}
}

// push appends u to the tail and starts the drain loop if it isn't running.
func (q *Queue) push(u *unit) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if q.capacity > 0 && len(q.pending) >= q.capacity {
		q.mu.Unlock()
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, q.capacity)
	}

	u.enqueued = time.Now()
	q.pending = append(q.pending, u)
	pending := len(q.pending)

	if !q.draining {
		q.draining = true
		q.wg.Add(1)
		go q.drain()
	}
	q.mu.Unlock()

	q.observer.Enqueued(pending)

	return nil
}

// remove withdraws u if it is still pending.
func (q *Queue) remove(u *unit) bool {
	q.mu.Lock()
	idx := slices.Index(q.pending, u)
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	q.pending = slices.Delete(q.pending, idx, idx+1)
	q.mu.Unlock()

	q.interrupt()

	return true
}

// pop removes and returns the head unit, or nil when the queue is empty.
func (q *Queue) pop() *unit {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	u := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]

	return u
}

// idle reports whether there is nothing left to drain, marking the drain
// loop as stopped when so. The check and the flag flip happen under one
// lock so a concurrent push either sees draining or restarts the loop.
func (q *Queue) idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		q.draining = false
		return true
	}

	return false
}

// interrupt wakes a drain loop that is waiting for its next slot.
func (q *Queue) interrupt() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) failAll(units []*unit, reason error) {
	if len(units) == 0 {
		return
	}

	q.interrupt()

	for _, u := range units {
		u.fail(reason)
	}

	q.observer.Canceled(len(units), reason)
	q.logger.Info("throttle queue emptied", "canceled", len(units), "reason", reason.Error())
}

// drain dispatches pending units one at a time until the queue is empty.
// The head unit stays pending, and so clearable, until its slot arrives.
func (q *Queue) drain() {
	defer q.wg.Done()

	for !q.idle() {
		now := time.Now()
		r := q.limiter.ReserveN(now, 1)

		// The limiter schedules from the slot it handed out, which a late
		// timer leaves behind the real start. lastStart holds the floor.
		wait := r.DelayFrom(now)
		if !q.lastStart.IsZero() {
			wait = max(wait, q.minDelay-now.Sub(q.lastStart))
		}

		if wait > 0 {
			q.logger.Debug("throttle spacing wait", "wait", wait.String(), "minDelay", q.minDelay.String())

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-q.wake:
				// The queue changed under us; hand the slot back and look again.
				timer.Stop()
				r.Cancel()
				continue
			}
		}

		u := q.pop()
		if u == nil {
			r.Cancel()
			continue
		}

		q.dispatch(u)
	}
}

// dispatch runs u to completion. A panicking task fails its own unit and
// the loop carries on with the next one.
func (q *Queue) dispatch(u *unit) {
	q.observer.Dispatched(time.Since(u.enqueued))

	start := time.Now()
	q.lastStart = start

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("%w: %v", ErrTaskPanicked, rec)
				q.logger.Error("throttle task panicked", "panic", rec, "stack", string(debug.Stack()))
				u.fail(err)
			}
		}()

		return u.run()
	}()

	q.observer.Completed(time.Since(start), err)
}
