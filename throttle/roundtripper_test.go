package throttle

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRoundTripper_NilQueue(t *testing.T) {
	if _, err := NewRoundTripper(nil, nil, nil); err == nil {
		t.Fatal("exp error for nil queue")
	}
}

func TestRoundTripper_SingleFlight(t *testing.T) {
	var (
		inFlight    atomic.Int32
		maxInFlight atomic.Int32
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}

		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	q := newTestQueue(t, WithMinDelay(10*time.Millisecond))

	rt, err := NewRoundTripper(q, nil, http.DefaultTransport)
	if err != nil {
		t.Fatalf("creating round tripper: %v", err)
	}
	cl := &http.Client{Transport: rt}

	const n = 8

	var wg sync.WaitGroup
	start := time.Now()
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, nil)
			if err != nil {
				t.Errorf("creating request: %v", err)
				return
			}

			resp, err := cl.Do(req)
			if err != nil {
				t.Errorf("do: %v", err)
				return
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
			}
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("max requests in flight = %d, want 1", got)
	}
	if took, want := time.Since(start), (n-1)*10*time.Millisecond; took < want {
		t.Errorf("%d requests took %v, want >= %v", n, took, want)
	}
}

func TestRoundTripper_ContextAlreadyEnded(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	q := newTestQueue(t)

	rt, err := NewRoundTripper(q, nil, nil)
	if err != nil {
		t.Fatalf("creating round tripper: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if _, err := rt.RoundTrip(req); !errors.Is(err, ErrContextEnded) {
		t.Errorf("exp %v; got: %v", ErrContextEnded, err)
	}
	if hits.Load() != 0 {
		t.Error("request reached the server")
	}
	if q.PendingCount() != 0 {
		t.Error("request was enqueued")
	}
}

func TestRoundTripper_ClearedRequest(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	q := newTestQueue(t, WithMinDelay(time.Millisecond))

	rt, err := NewRoundTripper(q, nil, nil)
	if err != nil {
		t.Fatalf("creating round tripper: %v", err)
	}
	cl := &http.Client{Transport: rt}

	send := func() error {
		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, nil)
		if err != nil {
			return err
		}
		resp, err := cl.Do(req)
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}

	// Occupy the slot so the second request stays pending.
	go send()
	<-started

	errc := make(chan error, 1)
	go func() { errc <- send() }()

	deadline := time.After(time.Second)
	for q.PendingCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("second request never queued")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	q.Clear()

	if err := <-errc; !errors.Is(err, ErrQueueCleared) {
		t.Errorf("exp %v; got: %v", ErrQueueCleared, err)
	}
}

// body records whether it was closed.
type body struct {
	closed atomic.Bool
}

func (b *body) Read([]byte) (int, error) { return 0, io.EOF }

func (b *body) Close() error {
	b.closed.Store(true)
	return nil
}

func TestRoundTripper_ClosesUnsentBody(t *testing.T) {
	// next never touches the body, so any close comes from the round tripper.
	next := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	newReq := func(ctx context.Context) (*http.Request, *body) {
		b := &body{}
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, "http://airtable.test/v0/app/Tareas", b)
		if err != nil {
			t.Fatalf("creating request: %v", err)
		}
		return req, b
	}

	t.Run("contextEndedEarly", func(t *testing.T) {
		rt, err := NewRoundTripper(newTestQueue(t), nil, next)
		if err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		req, b := newReq(ctx)
		if _, err := rt.RoundTrip(req); !errors.Is(err, ErrContextEnded) {
			t.Fatalf("exp %v; got: %v", ErrContextEnded, err)
		}
		if !b.closed.Load() {
			t.Error("body left open")
		}
	})

	t.Run("contextEndedWhileQueued", func(t *testing.T) {
		q := newTestQueue(t, WithMinDelay(time.Millisecond))
		rt, err := NewRoundTripper(q, nil, next)
		if err != nil {
			t.Fatal(err)
		}

		started, release := make(chan struct{}), make(chan struct{})
		blocker := Submit(t.Context(), q, func(context.Context) (int, error) {
			close(started)
			<-release
			return 0, nil
		})
		<-started
		defer func() {
			close(release)
			blocker.Wait(context.Background())
		}()

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		req, b := newReq(ctx)
		if _, err := rt.RoundTrip(req); !errors.Is(err, ErrContextEnded) {
			t.Fatalf("exp %v; got: %v", ErrContextEnded, err)
		}
		if !b.closed.Load() {
			t.Error("body left open")
		}
	})

	t.Run("sent", func(t *testing.T) {
		rt, err := NewRoundTripper(newTestQueue(t), nil, next)
		if err != nil {
			t.Fatal(err)
		}

		req, b := newReq(t.Context())
		if _, err := rt.RoundTrip(req); err != nil {
			t.Fatal(err)
		}
		if b.closed.Load() {
			t.Error("body closed after handing it to the transport")
		}
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
