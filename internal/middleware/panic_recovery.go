package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// PanicRecovery converts a panic in a later handler into the regular
// SYSTEM_001 error path. http.ErrAbortHandler is re-raised so net/http can
// abort the connection.
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				slog.ErrorContext(c.Request().Context(), "panic recovered",
					"trace_id", GetTraceID(c),
					"panic", r,
					"stack", string(debug.Stack()),
				)
				CustomHTTPErrorHandler(fmt.Errorf("panic: %v", r), c)
			}()

			return next(c)
		}
	}
}
