package middleware

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/drac2606/django-data-monitor/internal/errors"
	"github.com/drac2606/django-data-monitor/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "api_errors_total",
		Help: "Total number of API errors by code, endpoint, and status",
	},
	[]string{"code", "endpoint", "status"},
)

// statusCodes maps the statuses echo raises itself (routing, binding,
// middleware) onto the dashboard's error codes.
var statusCodes = map[int]errors.ErrorCode{
	http.StatusBadRequest:          errors.ValidationGeneral,
	http.StatusMethodNotAllowed:    errors.ValidationGeneral,
	http.StatusUnprocessableEntity: errors.ValidationGeneral,
	http.StatusUnauthorized:        errors.AuthMissingToken,
	http.StatusForbidden:           errors.AuthInsufficientPermission,
	http.StatusNotFound:            errors.SystemRouteNotFound,
	http.StatusTooManyRequests:     errors.SystemRateLimitExceeded,
	http.StatusInternalServerError: errors.SystemInternalError,
	http.StatusBadGateway:          errors.UpstreamUnavailable,
	http.StatusServiceUnavailable:  errors.SystemServiceUnavailable,
}

func mapHTTPStatusToErrorCode(status int) errors.ErrorCode {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return errors.SystemUnexpectedError
}

// resolveError turns anything a handler returned into a response body and status.
// Unknown errors become SYSTEM_001 without leaking their text.
func resolveError(err error, traceID string) (*errors.ErrorResponse, int) {
	var echoErr *echo.HTTPError
	if stderrors.As(err, &echoErr) {
		resp := errors.NewErrorResponse(mapHTTPStatusToErrorCode(echoErr.Code), traceID,
			errors.WithMessage(fmt.Sprint(echoErr.Message)))
		return resp, echoErr.Code
	}

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(validation.FieldErrors(fieldErrs), traceID), http.StatusBadRequest
	}

	resp, _ := errors.WrapSystemError(err, traceID)
	return resp, resp.GetHTTPStatus()
}

// CustomHTTPErrorHandler writes every error that escapes a handler as an
// ErrorResponse, logs it and counts it in api_errors_total.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	traceID := GetTraceID(c)
	if traceID == "" {
		traceID = "unknown"
	}

	resp, status := resolveError(err, traceID)
	req := c.Request()

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(req.Context(), level, "request failed",
		"trace_id", traceID,
		"error_code", resp.Error.Code,
		"status", status,
		"method", req.Method,
		"path", req.URL.Path,
		"error", err,
	)
	apiErrorsTotal.WithLabelValues(resp.Error.Code, c.Path(), strconv.Itoa(status)).Inc()

	if req.Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		slog.Error("failed to write error response", "trace_id", traceID, "error", err)
	}
}
