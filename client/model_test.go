package client

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

	testCases := map[string]struct {
		header string
		exp    time.Duration
	}{
		"empty":        {header: "", exp: 0},
		"seconds":      {header: "30", exp: 30 * time.Second},
		"negative":     {header: "-5", exp: 0},
		"httpDate":     {header: now.Add(90 * time.Second).Format(http.TimeFormat), exp: 90 * time.Second},
		"pastHTTPDate": {header: now.Add(-time.Minute).Format(http.TimeFormat), exp: 0},
		"garbage":      {header: "soon", exp: 0},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := parseRetryAfter(tc.header, now); got != tc.exp {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tc.header, got, tc.exp)
			}
		})
	}
}

func TestStatusErr(t *testing.T) {
	testCases := map[string]struct {
		code   int
		expErr error
		notErr error
	}{
		"unauthorized": {code: http.StatusUnauthorized, expErr: ErrAuthFailure, notErr: ErrRateLimited},
		"forbidden":    {code: http.StatusForbidden, expErr: ErrAuthFailure, notErr: ErrRateLimited},
		"tooMany":      {code: http.StatusTooManyRequests, expErr: ErrRateLimited, notErr: ErrAuthFailure},
		"notFound":     {code: http.StatusNotFound, expErr: ErrUnexpectedStatusCode, notErr: ErrAuthFailure},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := &UnexpectedStatusError{StatusCode: tc.code, Err: statusErr(tc.code)}

			if !errors.Is(err, tc.expErr) {
				t.Errorf("exp %v; got: %v", tc.expErr, err)
			}
			if !errors.Is(err, ErrUnexpectedStatusCode) {
				t.Errorf("exp %v; got: %v", ErrUnexpectedStatusCode, err)
			}
			if errors.Is(err, tc.notErr) {
				t.Errorf("did not expect %v; got: %v", tc.notErr, err)
			}
		})
	}
}
