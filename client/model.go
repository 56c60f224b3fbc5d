package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// maxErrBodySize caps how much of an unexpected response is kept in its
// error.
const maxErrBodySize = 4 << 10

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is wrapped alongside [ErrUnexpectedStatusCode] when the
	// server responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrRateLimited is wrapped alongside [ErrUnexpectedStatusCode] when the
	// server responds with 429 Too Many Requests.
	ErrRateLimited = errors.New("rate limited")
)

// UnexpectedStatusError is returned when the HTTP response status code
// does not match the expected value.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the same request may succeed if sent again later.
func (e *UnexpectedStatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func newStatusError(resp *http.Response) *UnexpectedStatusError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	if err != nil {
		body = []byte("unable to read body")
	}

	return &UnexpectedStatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		Err:        statusErr(resp.StatusCode),
	}
}

func statusErr(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAuthFailure, ErrUnexpectedStatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, ErrUnexpectedStatusCode)
	default:
		return ErrUnexpectedStatusCode
	}
}

// parseRetryAfter accepts both forms of the header, delta-seconds and an
// HTTP date. Anything unparseable or in the past yields zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}

	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	at, err := http.ParseTime(v)
	if err != nil {
		return 0
	}

	if d := at.Sub(now); d > 0 {
		return d
	}

	return 0
}
