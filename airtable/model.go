package airtable

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adamwoolhether/tablero/client"
)

const (
	// DefaultBaseURL is the public Airtable REST endpoint.
	DefaultBaseURL = "https://api.airtable.com"

	// MaxBatchSize is the most records a single batch write may carry.
	MaxBatchSize = 10

	// MaxPageSize is the largest page Airtable will return.
	MaxPageSize = 100

	apiVersion = "v0"
)

var (
	ErrBatchTooLarge = errors.New("airtable: batch too large")
	ErrEmptyBatch    = errors.New("airtable: batch is empty")
	ErrMissingID     = errors.New("airtable: record id required")
	ErrMissingTable  = errors.New("airtable: table required")
)

// Fields holds a record's cell values keyed by field name. Values decode the
// way encoding/json decodes into any: numbers as float64, linked records
// and lookups as []any.
type Fields map[string]any

// String returns the field as a string, or "" when it is absent or not text.
func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

// Float returns the field as a number. ok is false when the field is absent
// or holds something else.
func (f Fields) Float(name string) (v float64, ok bool) {
	switch n := f[name].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		p, err := strconv.ParseFloat(n, 64)
		return p, err == nil
	}

	return 0, false
}

// Strings returns the field as a list of strings. Linked record fields hold
// record IDs; a bare string is returned as a one element list.
func (f Fields) Strings(name string) []string {
	switch v := f[name].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				if id, ok := it["id"].(string); ok {
					out = append(out, id)
				}
			default:
				out = append(out, fmt.Sprint(it))
			}
		}
		return out
	}

	return nil
}

// Record is a single row of an Airtable table.
type Record struct {
	ID          string    `json:"id"`
	CreatedTime time.Time `json:"createdTime"`
	Fields      Fields    `json:"fields"`
}

// Page is one page of a list call. A non-empty Offset means more records
// follow and can be fetched by passing it back in [ListOptions].
type Page struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// Direction orders a [Sort].
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders list results by a field.
type Sort struct {
	Field     string
	Direction Direction
}

// ListOptions narrows and shapes a list call. Zero values are omitted from
// the query.
type ListOptions struct {
	PageSize   int
	MaxRecords int
	Fields     []string
	Filter     string
	Sort       []Sort
	View       string
	Offset     string
}

// Update is one record's changes in a batch write.
type Update struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

type fieldsBody struct {
	Fields Fields `json:"fields"`
}

type batchBody struct {
	Records []Update `json:"records"`
}

type batchResult struct {
	Records []Record `json:"records"`
}

type deleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// APIError is the error object Airtable sends with a failed call.
type APIError struct {
	Type    string
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return e.Type
	}
	return e.Type + ": " + e.Message
}

// ParseError extracts the [APIError] carried by a failed call. Airtable
// sends either {"error":"NOT_FOUND"} or
// {"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"..."}}.
func ParseError(err error) (APIError, bool) {
	statusErr, ok := errors.AsType[*client.UnexpectedStatusError](err)
	if !ok || statusErr.Body == "" {
		return APIError{}, false
	}

	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal([]byte(statusErr.Body), &body) != nil || len(body.Error) == 0 {
		return APIError{}, false
	}

	var apiErr APIError
	if json.Unmarshal(body.Error, &apiErr.Type) == nil {
		return apiErr, apiErr.Type != ""
	}

	var obj struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body.Error, &obj) != nil || obj.Type == "" {
		return APIError{}, false
	}

	return APIError{Type: obj.Type, Message: obj.Message}, true
}
