package client

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/adamwoolhether/tablero/throttle"
)

// Option configures a [Client] built by [Build].
type Option func(*options) error

type options struct {
	base        http.RoundTripper
	timeout     time.Duration
	userAgent   string
	bearerToken string
	queue       *throttle.Queue
	tracing     []otelhttp.Option
	traced      bool
	logger      *slog.Logger
}

// WithTransport replaces [http.DefaultTransport] as the innermost
// round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.base = rt
		return nil
	}
}

// WithTimeout bounds each request, time spent waiting in a throttle queue
// included. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = d
		return nil
	}
}

func WithUserAgent(ua string) Option {
	return func(o *options) error {
		o.userAgent = ua
		return nil
	}
}

// WithBearerToken sends "Authorization: Bearer <token>" with every request.
func WithBearerToken(token string) Option {
	return func(o *options) error {
		if token == "" {
			return errors.New("bearer token must not be empty")
		}
		o.bearerToken = token
		return nil
	}
}

// WithThrottle routes every request through q, so at most one is in flight
// and dispatch starts are spaced by the queue's min delay. Clients talking
// to the same rate-limited API should share q.
func WithThrottle(q *throttle.Queue) Option {
	return func(o *options) error {
		if q == nil {
			return errors.New("throttle queue must not be nil")
		}
		o.queue = q
		return nil
	}
}

// WithTracing records a client span per request. Spans cover the wire
// exchange only, not the time spent queued.
func WithTracing(opts ...otelhttp.Option) Option {
	return func(o *options) error {
		o.traced = true
		o.tracing = opts
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// headerSetter sets one header on a copy of each request.
type headerSetter struct {
	key, value string
	next       http.RoundTripper
}

func (h headerSetter) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set(h.key, h.value)
	return h.next.RoundTrip(r)
}

// DoOption configures a single [Client.Do] call.
type DoOption func(*doOpts) error

type doOpts struct {
	dest any
}

// WithDestination decodes a matching JSON response into dest.
func WithDestination[T any](dest *T) DoOption {
	return func(o *doOpts) error {
		if dest == nil {
			return errors.New("destination must not be nil")
		}
		o.dest = dest
		return nil
	}
}

// RequestOption configures [Request].
type RequestOption func(*requestOpts) error

type requestOpts struct {
	body    any
	headers http.Header
}

// WithPayload JSON encodes body as the request body.
func WithPayload(body any) RequestOption {
	return func(o *requestOpts) error {
		o.body = body
		return nil
	}
}

// WithHeaders adds headers to the request, keeping every value of
// repeated keys.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(o *requestOpts) error {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		for k, vs := range headers {
			for _, v := range vs {
				o.headers.Add(k, v)
			}
		}
		return nil
	}
}

// URLOption configures [URL].
type URLOption func(url.Values)

// WithQuery adds query parameters, keeping repeated keys such as
// Airtable's "fields[]".
func WithQuery(values url.Values) URLOption {
	return func(q url.Values) {
		for k, vs := range values {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
	}
}
