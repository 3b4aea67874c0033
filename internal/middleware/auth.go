package middleware

import (
	"net/http"
	"net/url"

	"github.com/drac2606/django-data-monitor/internal/errors"
	"github.com/drac2606/django-data-monitor/internal/handlers"
	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/repositories"
	"github.com/drac2606/django-data-monitor/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ClaimsContextKey holds the validated *models.CustomClaims
const ClaimsContextKey = "claims"

// RequireAuth requires a valid, non-revoked JWT taken from the Authorization
// header or, for browser sessions, the access_token cookie. Browsers asking
// for a page are redirected to the login form instead of receiving a 401.
func RequireAuth(tokenService services.TokenServiceInterface, blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, code := bearerToken(c, tokenService)
			if code != "" {
				return unauthenticated(c, code)
			}

			claims, err := tokenService.ValidateAccessToken(token)
			if err != nil {
				if err == services.ErrExpiredToken {
					return unauthenticated(c, errors.AuthExpiredToken)
				}
				return unauthenticated(c, errors.AuthInvalidTokenFormat)
			}

			revoked, err := blacklistedTokenRepo.IsBlacklisted(claims.ID)
			if err != nil {
				return handlers.SendSystemError(c, err)
			}
			if revoked {
				return unauthenticated(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Token has been revoked"))
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return unauthenticated(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Invalid user ID in token"))
			}

			c.Set("user_id", userID)
			c.Set("user_email", claims.Email)
			c.Set("user_role", claims.Role)
			c.Set("token_jti", claims.ID)
			c.Set("is_admin", claims.Role == models.RoleAdmin)
			c.Set(ClaimsContextKey, claims)

			return next(c)
		}
	}
}

// RequirePermission lets the request through when the authenticated user is
// an admin or holds the codename. Anyone else gets a 403, never a redirect.
func RequirePermission(codename string, events services.AuditLoggerInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsContextKey).(*models.CustomClaims)
			if !ok || claims == nil {
				return unauthenticated(c, errors.AuthMissingToken)
			}

			if claims.HasPermission(codename) {
				return next(c)
			}

			if events != nil {
				events.LogAuthorizationFailure(c.Request().Context(), c.Request().URL.Path, claims.UserID, codename)
			}
			return handlers.SendError(c, errors.AuthInsufficientPermission,
				errors.WithDetails("missing permission "+codename))
		}
	}
}

// RequireAdmin requires the admin role
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isAdmin, _ := c.Get("is_admin").(bool); !isAdmin {
				return handlers.SendError(c, errors.AuthInsufficientPermission)
			}
			return next(c)
		}
	}
}

// bearerToken prefers the Authorization header and falls back to the cookie.
// A non-empty error code means no usable token was presented.
func bearerToken(c echo.Context, tokenService services.TokenServiceInterface) (string, errors.ErrorCode) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		token, err := tokenService.ExtractTokenFromHeader(header)
		if err != nil {
			return "", errors.AuthInvalidTokenFormat
		}
		return token, ""
	}

	cookie, err := c.Cookie(handlers.AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		return "", errors.AuthMissingToken
	}
	return cookie.Value, ""
}

func unauthenticated(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	if handlers.WantsHTML(c) && c.Request().Method == http.MethodGet {
		next := c.Request().URL.RequestURI()
		return c.Redirect(http.StatusFound, handlers.LoginPath+"?next="+url.QueryEscape(next))
	}
	return handlers.SendError(c, code, opts...)
}
