package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// roundTripper is an http.RoundTripper that sends every request through a
// Queue, one at a time and spaced by the queue's min delay.
type roundTripper struct {
	queue *Queue
	next  http.RoundTripper
	logFn func() *slog.Logger
}

// NewRoundTripper returns an http.RoundTripper that submits each outbound
// request to q as a single unit. logFn lazily resolves the logger at request
// time, making option ordering irrelevant. A nil-returning logFn disables the
// backlog logging.
func NewRoundTripper(q *Queue, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if q == nil {
		return nil, errors.New("queue must not be nil")
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	rt := roundTripper{
		queue: q,
		next:  next,
		logFn: logFn,
	}

	return &rt, nil
}

func (t *roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		closeBody(r)
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	logger := t.logFn()
	if pending := t.queue.PendingCount(); logger != nil && pending > 0 {
		logger.Info("throttle queue backlog", "pending", pending, "minDelay", t.queue.MinDelay().String(), "path", r.URL.Path)

		start := time.Now()
		defer func() {
			logger.Info("throttle wait complete", "waited", time.Since(start).String(), "path", r.URL.Path)
		}()
	}

	// Once next has the request it owns the body. Until then it is ours to
	// close, whatever kept the unit from running.
	var sent atomic.Bool
	resp, err := Do(ctx, t.queue, func(context.Context) (*http.Response, error) {
		sent.Store(true)
		return t.next.RoundTrip(r)
	})
	if err != nil && !sent.Load() {
		closeBody(r)
	}

	return resp, err
}

func closeBody(r *http.Request) {
	if r.Body != nil {
		_ = r.Body.Close()
	}
}
