package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"

	"github.com/adamwoolhether/tablero/web"
	"github.com/adamwoolhether/tablero/web/errs"
	"github.com/adamwoolhether/tablero/web/mux"
)

// Errors handles errors coming out of the call chain. Field errors become a
// 422, *errs.Error is answered with its own code, and anything else is
// logged and answered with a bare 500.
func Errors(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			if fieldErr, ok := errors.AsType[errs.FieldErrors](err); ok {
				return web.RespondJSON(ctx, w, http.StatusUnprocessableEntity, fieldErr)
			}

			appErr, ok := errors.AsType[*errs.Error](err)
			switch {
			case ok:
			case errors.Is(err, context.DeadlineExceeded):
				appErr = errs.New(http.StatusGatewayTimeout, err)
				appErr.InnerErr = true
			default: // obscure escaped errors from public view.
				appErr = errs.NewInternal(err)
			}

			reqLog := log.With("trace_id", mux.GetValues(ctx).TraceID)
			reqLog.Error(err.Error(), "status", appErr.Code, "source_err_file", path.Base(appErr.FileName), "source_err_func", path.Base(appErr.FuncName))

			if appErr.IsInternal() { // after logging, hide the cause from the caller.
				appErr.Message = http.StatusText(appErr.Code)
			}

			return web.RespondError(ctx, w, appErr)
		}

		return h
	}

	return m
}
