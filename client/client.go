package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/adamwoolhether/tablero/throttle"
)

// Client sends JSON requests through a transport chain fixed at [Build]
// time.
type Client struct {
	c      *http.Client
	logger *slog.Logger
	queue  *throttle.Queue
}

// Build returns a Client. Without options it sends over
// [http.DefaultTransport] and logs to slog.Default().
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, fn := range optFns {
		if err := fn(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	cl := &Client{
		logger: opts.logger,
		queue:  opts.queue,
	}
	if cl.logger == nil {
		cl.logger = slog.Default()
	}

	rt, err := opts.transport(func() *slog.Logger { return cl.logger })
	if err != nil {
		return nil, err
	}
	cl.c = &http.Client{Transport: rt, Timeout: opts.timeout}

	return cl, nil
}

// transport layers the round trippers from the inside out: tracing sees
// the wire request, and the throttle is outermost so headers are already
// set when a request waits its turn.
func (o options) transport(logFn func() *slog.Logger) (http.RoundTripper, error) {
	rt := o.base
	if rt == nil {
		rt = http.DefaultTransport
	}

	if o.traced {
		rt = otelhttp.NewTransport(rt, o.tracing...)
	}
	if o.userAgent != "" {
		rt = headerSetter{key: "User-Agent", value: o.userAgent, next: rt}
	}
	if o.bearerToken != "" {
		rt = headerSetter{key: "Authorization", value: "Bearer " + o.bearerToken, next: rt}
	}
	if o.queue == nil {
		return rt, nil
	}

	throttled, err := throttle.NewRoundTripper(o.queue, logFn, rt)
	if err != nil {
		return nil, fmt.Errorf("configuring throttle: %w", err)
	}

	return throttled, nil
}

// Queue returns the throttle queue requests are routed through, or nil.
func (c *Client) Queue() *throttle.Queue {
	return c.queue
}

// Do sends req and checks the response status against expCode. With
// [WithDestination] the body is decoded as JSON.
func (c *Client) Do(req *http.Request, expCode int, opts ...DoOption) error {
	var settings doOpts
	for _, fn := range opts {
		if err := fn(&settings); err != nil {
			return err
		}
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer c.release(resp)

	if resp.StatusCode != expCode {
		return newStatusError(resp)
	}

	if settings.dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(settings.dest); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	return nil
}

// Request is [Request] as a method, for callers holding only a Client.
func (c *Client) Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	return Request(ctx, reqURL, method, opts...)
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exec http do: %w", err)
	}

	c.logger.Debug("http call", "method", req.Method, "url", req.URL.Redacted(), "status", resp.StatusCode, "took", time.Since(start).String())

	return resp, nil
}

// release drains and closes the body so the connection can be reused.
func (c *Client) release(resp *http.Response) {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		c.logger.Error("failed to discard unused body", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		c.logger.Error("failed to close response body", "error", err)
	}
}

// Request builds a request for reqURL with a JSON Content-Type. A
// [WithPayload] body is JSON encoded.
func Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, fn := range opts {
		if err := fn(&settings); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if settings.body != nil {
		b, err := json.Marshal(settings.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	for k, vs := range settings.headers {
		req.Header[k] = append(req.Header[k], vs...)
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// URL assembles an absolute URL. host may carry a port.
func URL(scheme, host, path string, opts ...URLOption) *url.URL {
	q := url.Values{}
	for _, fn := range opts {
		fn(q)
	}

	return &url.URL{Scheme: scheme, Host: host, Path: path, RawQuery: q.Encode()}
}
