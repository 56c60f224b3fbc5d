// Package tablero exposes shortcuts for building the rate-limited Airtable
// stack outside of the tablero server.
package tablero

import (
	"errors"
	"fmt"

	"github.com/adamwoolhether/tablero/airtable"
	"github.com/adamwoolhether/tablero/client"
	"github.com/adamwoolhether/tablero/throttle"
)

// NewThrottle returns a request queue. Without options calls are spaced by
// [throttle.DefaultMinDelay], which keeps a single process under Airtable's
// five requests per second.
func NewThrottle(opts ...throttle.Option) (*throttle.Queue, error) {
	return throttle.New(opts...)
}

// NewAirtable returns an Airtable client for baseID that authenticates with
// token and sends every call through q. Share q between all clients that
// talk to the same base.
func NewAirtable(q *throttle.Queue, token, baseID string, opts ...airtable.Option) (*airtable.Client, error) {
	if q == nil {
		return nil, errors.New("queue must not be nil")
	}
	if token == "" {
		return nil, errors.New("token must not be empty")
	}

	hc, err := client.Build(client.WithThrottle(q), client.WithBearerToken(token))
	if err != nil {
		return nil, fmt.Errorf("building http client: %w", err)
	}

	return airtable.New(hc, baseID, opts...)
}
