package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// maxBodySize caps request bodies read by Decode.
const maxBodySize = 1 << 20

// Param extracts a path parameter by key and returns its string value.
func Param(r *http.Request, key string) (string, error) {
	val := r.PathValue(key)
	if val == "" {
		return "", fmt.Errorf("path param[%s] not found", key)
	}

	return val, nil
}

// QueryString extracts a query parameter by key and returns its string value.
func QueryString(r *http.Request, key string) (string, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return "", fmt.Errorf("query param[%s] is empty", key)
	}

	return val, nil
}

// QueryInt extracts a query parameter by key and parses it as an int. A
// missing parameter yields def.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def, nil
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("query param[%s] must be integer: %w", key, err)
	}

	return v, nil
}

// Decode reads the body of an HTTP request looking for a JSON document. The
// body is decoded into the provided value and checked for validation tags.
// Unknown fields are rejected.
func Decode[T any](r *http.Request, val *T) error {
	return decode(r, val, true)
}

// DecodeAllowUnknownFields is the same as Decode, but won't reject unknown fields.
func DecodeAllowUnknownFields[T any](r *http.Request, val *T) error {
	return decode(r, val, false)
}

func decode(r *http.Request, val any, strict bool) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(val); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	return Validate(val)
}
