// Package client provides a configurable JSON HTTP client built on
// [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithBearerToken(token),
//	)
//
// # Making Requests
//
// Construct a [URL] and [Request], then execute with [Client.Do]:
//
//	u := client.URL("https", "api.example.com", "/v1/resource",
//		client.WithQuery(url.Values{"fields[]": {"Name", "Status"}}),
//	)
//	req, err := client.Request(ctx, u, http.MethodGet)
//	err = c.Do(req, http.StatusOK, client.WithDestination(&result))
//
// A response with a different status yields an [*UnexpectedStatusError].
// 401 and 403 also match [ErrAuthFailure], 429 also matches [ErrRateLimited].
//
// # Throttling
//
// [WithThrottle] routes every request through a [throttle.Queue]: one
// request in flight at a time, with dispatch starts spaced by the queue's
// min delay. Retrying a failed request is the caller's job; a retried
// request is a new request and joins the tail of the queue.
//
//	q, err := throttle.New(throttle.WithMinDelay(220 * time.Millisecond))
//	c, err := client.Build(client.WithThrottle(q))
package client
