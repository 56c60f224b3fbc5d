// Package throttle serializes calls to a rate-limited remote API through a
// single-flight FIFO queue.
//
// A [Queue] releases queued work one unit at a time, never starting two units
// closer together than its minimum delay. Spacing is measured between dispatch
// starts, and the next unit is never started while the previous one is still
// running. The timing baseline survives idle periods, so a call made shortly
// after a burst still waits out the remainder of the interval.
//
// # Usage
//
// Construct one [Queue] per rate-limited backend and share it with every
// caller that spends the same rate budget:
//
//	q, err := throttle.New(throttle.WithMinDelay(220 * time.Millisecond))
//
// Submit work and wait for its result:
//
//	rec, err := throttle.Do(ctx, q, func(ctx context.Context) (*Record, error) {
//		return api.Delete(ctx, id)
//	})
//
// Or hold on to the [Future] and wait later:
//
//	f := throttle.Submit(ctx, q, task)
//	// ... other work ...
//	rec, err := f.Wait(ctx)
//
// A task's own error is returned unchanged. The queue only produces its own
// errors for conditions about the queue itself: [ErrQueueCleared] after
// [Queue.Clear], [ErrQueueFull] when a capacity is configured, [ErrClosed]
// after [Queue.Close], and [ErrContextEnded] when a caller stops waiting
// before its unit was dispatched.
//
// There is no retry inside the queue. Callers that want to retry submit the
// work again, which places it at the tail.
//
// A task must not submit to its own queue and wait for the result: the
// queue runs one unit at a time, so the inner unit could never start.
//
// # HTTP
//
// [NewRoundTripper] turns a queue into an [http.RoundTripper], making every
// outbound request one queued unit.
package throttle
