package api

import (
	"context"
	"net/http"

	"github.com/adamwoolhether/tablero/board"
	"github.com/adamwoolhether/tablero/web/errs"
	"github.com/adamwoolhether/tablero/web/mux"
)

// Identity headers set by the authenticating proxy in front of the API.
const (
	HeaderRole       = "X-User-Role"
	HeaderAirtableID = "X-Airtable-Id"
)

type ctxKey int

const identityKey ctxKey = 1

// Identity reads the caller from the identity headers and rejects requests
// that carry none.
func Identity() mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			who := board.Identity{
				Role:       r.Header.Get(HeaderRole),
				AirtableID: r.Header.Get(HeaderAirtableID),
			}
			if who.Role == "" {
				return errs.Newf(http.StatusUnauthorized, "Unauthorized")
			}

			return handler(context.WithValue(ctx, identityKey, who), w, r)
		}

		return h
	}

	return m
}

// GetIdentity returns the caller stored by [Identity].
func GetIdentity(ctx context.Context) (board.Identity, bool) {
	who, ok := ctx.Value(identityKey).(board.Identity)
	return who, ok
}
