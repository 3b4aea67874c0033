package handlers

import (
	"net/http"
	"time"

	"github.com/drac2606/django-data-monitor/internal/database"
	"github.com/drac2606/django-data-monitor/internal/errors"
	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/services"

	"github.com/labstack/echo/v4"
)

// HealthCheckHandler handles the health check endpoint
type HealthCheckHandler struct {
	db      *database.DB
	breaker services.CircuitBreakerInterface
}

// NewHealthCheckHandler creates a new health check handler
func NewHealthCheckHandler(db *database.DB, breaker services.CircuitBreakerInterface) *HealthCheckHandler {
	return &HealthCheckHandler{db: db, breaker: breaker}
}

// HealthCheck reports database connectivity and the upstream circuit state.
// An open circuit degrades the service but does not fail the check.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,upstream=string,time=string} "healthy or degraded"
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003 - database connection failed"
// @Router /health [get]
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		return SendError(c, errors.SystemServiceUnavailable, errors.WithDetails("Database connection failed"))
	}

	status := "healthy"
	upstream := models.CircuitClosed
	if h.breaker != nil {
		upstream = h.breaker.GetState()
		if upstream == models.CircuitOpen {
			status = "degraded"
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   status,
		"upstream": upstream.String(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
