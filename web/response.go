package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/adamwoolhether/tablero/web/errs"
	"github.com/adamwoolhether/tablero/web/mux"
)

// Envelope wraps every successful API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// RespondJSON to an HTTP request, setting the status code and body if any.
func RespondJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) error {
	mux.SetStatusCode(ctx, statusCode)

	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err = w.Write(jsonData); err != nil {
		return err
	}

	return nil
}

// RespondData writes data inside a successful [Envelope].
func RespondData(ctx context.Context, w http.ResponseWriter, statusCode int, data any) error {
	return RespondJSON(ctx, w, statusCode, Envelope{Success: true, Data: data})
}

// RespondMessage writes a successful [Envelope] carrying only a message.
func RespondMessage(ctx context.Context, w http.ResponseWriter, statusCode int, msg string) error {
	return RespondJSON(ctx, w, statusCode, Envelope{Success: true, Message: msg})
}

// RespondError writes the failure envelope using the status code and
// message of err.
func RespondError(ctx context.Context, w http.ResponseWriter, err *errs.Error) error {
	return RespondJSON(ctx, w, err.Code, err)
}
