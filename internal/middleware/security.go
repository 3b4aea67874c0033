package middleware

import (
	"fmt"
	"strings"

	"github.com/drac2606/django-data-monitor/internal/handlers"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ChartCDN serves the charting library loaded by the dashboard pages
const ChartCDN = "https://cdn.jsdelivr.net"

// SecurityHeaders adds security headers to responses. JSON endpoints get a
// locked-down CSP; pages may run the chart library and nonce-tagged scripts.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

			if isAPIPath(c.Request().URL.Path) {
				h.Set("Content-Security-Policy", "default-src 'self'")
			} else {
				nonce := uuid.NewString()
				c.Set(handlers.CSPNonceContextKey, nonce)
				h.Set("Content-Security-Policy", fmt.Sprintf(
					"default-src 'self'; "+
						"script-src 'self' 'nonce-%s' %s; "+
						"style-src 'self' 'unsafe-inline' %s; "+
						"img-src 'self' data:; "+
						"form-action 'self'; "+
						"frame-ancestors 'none'",
					nonce, ChartCDN, ChartCDN))
			}

			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			// Dashboards show per-user data
			h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")

			return next(c)
		}
	}
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/health" || path == "/metrics"
}
