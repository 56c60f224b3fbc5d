// Package errs defines the errors handlers return to the error middleware.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Error is an error with the HTTP status it should be answered with.
type Error struct {
	Code     int
	Message  string
	FuncName string
	FileName string
	InnerErr bool
}

// New constructs an Error whose message is safe to show the caller.
func New(code int, err error) *Error {
	return newError(code, err.Error(), false)
}

// Newf is New with a formatted message.
func Newf(code int, format string, args ...any) *Error {
	return newError(code, fmt.Sprintf(format, args...), false)
}

// NewInternal creates an error that is logged but answered with a generic
// message.
func NewInternal(err error) *Error {
	return newError(http.StatusInternalServerError, err.Error(), true)
}

func newError(code int, msg string, internal bool) *Error {
	pc, filename, line, _ := runtime.Caller(2)

	return &Error{
		Code:     code,
		Message:  msg,
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
		InnerErr: internal,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// IsInternal returns true if the error is internal.
func (e *Error) IsInternal() bool {
	return e.InnerErr
}

// MarshalJSON renders the failure envelope.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{
		Error: e.Message,
	})
}

// /////////////////////////////////////////////////////////////////////////////////////////////

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// NewFieldsError creates a fields error.
func NewFieldsError(field string, err error) error {
	return FieldErrors{
		{
			Field: field,
			Err:   err.Error(),
		},
	}
}

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

// Fields returns the fields that failed validation
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, fld := range fe {
		m[fld.Field] = fld.Err
	}
	return m
}

// MarshalJSON renders the failure envelope with per-field messages.
func (fe FieldErrors) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success bool              `json:"success"`
		Error   string            `json:"error"`
		Fields  map[string]string `json:"fields"`
	}{
		Error:  "validation failed",
		Fields: fe.Fields(),
	})
}

// GetFieldErrors returns the FieldErrors in err's chain, or nil.
func GetFieldErrors(err error) FieldErrors {
	fe, _ := errors.AsType[FieldErrors](err)
	return fe
}
