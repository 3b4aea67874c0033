package handlers

import (
	"log/slog"
	"net/http"

	"github.com/drac2606/django-data-monitor/internal/errors"

	"github.com/labstack/echo/v4"
)

// Handlers report failures through SendError (client and upstream errors
// with a registered code) or SendSystemError (anything internal). Neither
// echo.NewHTTPError nor a bare c.JSON is used for errors.

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"

	// AccessTokenCookie carries the JWT for browser sessions
	AccessTokenCookie = "access_token"

	// LoginPath is where unauthenticated browser requests are sent
	LoginPath = "/auth/login"

	// CSPNonceContextKey holds the per-request script nonce for page templates
	CSPNonceContextKey = "csp_nonce"
)

// SuccessResponse wraps JSON payloads; Meta carries pagination.
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorResponse = errors.ErrorResponse

func getTraceID(c echo.Context) string {
	traceID, _ := c.Get(TraceIDContextKey).(string)
	return traceID
}

// SendError writes the registered status and envelope for code.
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	resp := errors.NewErrorResponse(code, getTraceID(c), opts...)
	return c.JSON(resp.GetHTTPStatus(), resp)
}

// SendSystemError logs err and answers SYSTEM_001 without exposing it.
func SendSystemError(c echo.Context, err error) error {
	resp, internal := errors.WrapSystemError(err, getTraceID(c))
	if internal != nil {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"trace_id", resp.Error.TraceID,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", internal,
		)
	}
	return c.JSON(http.StatusInternalServerError, resp)
}
