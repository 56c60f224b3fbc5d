package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/tablero/airtable"
	"github.com/adamwoolhether/tablero/board"
	"github.com/adamwoolhether/tablero/client"
	"github.com/adamwoolhether/tablero/throttle"
	"github.com/adamwoolhether/tablero/web"
	"github.com/adamwoolhether/tablero/web/errs"
)

// toAppError maps board, Airtable and queue failures onto HTTP errors.
// Anything it does not recognize is returned as is and answered with a
// generic 500 by the error middleware.
func toAppError(err error) error {
	if _, ok := errors.AsType[errs.FieldErrors](err); ok {
		return err
	}

	switch {
	case errors.Is(err, board.ErrInvalidInput),
		errors.Is(err, board.ErrMissingProject),
		errors.Is(err, board.ErrMissingTask),
		errors.Is(err, airtable.ErrMissingID):
		return errs.New(http.StatusBadRequest, err)

	case errors.Is(err, throttle.ErrQueueFull),
		errors.Is(err, throttle.ErrClosed),
		errors.Is(err, throttle.ErrQueueCleared),
		errors.Is(err, throttle.ErrContextEnded),
		errors.Is(err, client.ErrRateLimited):
		return errs.Newf(http.StatusServiceUnavailable, "Airtable is busy, try again shortly")
	}

	if statusErr, ok := errors.AsType[*client.UnexpectedStatusError](err); ok {
		switch statusErr.StatusCode {
		case http.StatusNotFound:
			return errs.Newf(http.StatusNotFound, "record not found")
		case http.StatusUnprocessableEntity:
			reason := statusErr.Body
			if apiErr, ok := airtable.ParseError(err); ok {
				reason = apiErr.Error()
			}
			return errs.Newf(http.StatusBadRequest, "Airtable rejected the change: %s", reason)
		}

		appErr := errs.New(http.StatusBadGateway, err)
		appErr.InnerErr = true
		return appErr
	}

	return err
}

// decode reads a JSON body into v. A value of the wrong JSON type is a
// field error; other syntax problems are answered with a 400. Unknown fields are rejected
// unless lenient is set.
func decode[T any](r *http.Request, v *T, lenient bool) error {
	fn := web.Decode[T]
	if lenient {
		fn = web.DecodeAllowUnknownFields[T]
	}

	err := fn(r, v)
	if err == nil {
		return nil
	}
	if _, ok := errors.AsType[errs.FieldErrors](err); ok {
		return err
	}
	if typeErr, ok := errors.AsType[*json.UnmarshalTypeError](err); ok && typeErr.Field != "" {
		return errs.NewFieldsError(typeErr.Field, fmt.Errorf("must be a %s", typeErr.Type))
	}

	cause := errors.Unwrap(err)
	if cause == nil {
		cause = err
	}

	return errs.New(http.StatusBadRequest, fmt.Errorf("invalid request body: %w", cause))
}
