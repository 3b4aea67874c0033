package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/drac2606/django-data-monitor/internal/dto"
	"github.com/drac2606/django-data-monitor/internal/errors"
	"github.com/drac2606/django-data-monitor/internal/render"
	"github.com/drac2606/django-data-monitor/internal/services"
	"github.com/drac2606/django-data-monitor/internal/validation"

	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication endpoints for both the JSON API and
// the browser login form
type AuthHandler struct {
	authService  services.AuthServiceInterface
	cookieSecure bool
}

// NewAuthHandler creates a new authentication handler. cookieSecure marks
// the session cookie Secure and should be on whenever TLS terminates in front
// of the service.
func NewAuthHandler(authService services.AuthServiceInterface, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

// LoginForm renders the sign-in page
// @Summary Sign-in page
// @Tags Authentication
// @Produce html
// @Param next query string false "Path to return to after signing in"
// @Success 200 {string} string "HTML page"
// @Router /auth/login [get]
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return h.renderLogin(c, http.StatusOK, "", "", c.QueryParam("next"))
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate with email and password. The access token is returned in the body and set as an HttpOnly cookie.
// @Tags Authentication
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.TokenResponse "Login successful"
// @Success 302 "Form login redirects to next"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Invalid credentials"
// @Failure 403 {object} errors.ErrorResponse "AUTH_006 - Account locked"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	form := isFormPost(c)

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		if form {
			return h.renderLogin(c, http.StatusBadRequest, "Invalid request", "", "")
		}
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		if form {
			return h.renderLogin(c, http.StatusBadRequest, formatFieldErrors(err), req.Email, req.Next)
		}
		return err
	}

	tokens, err := h.authService.Login(&req, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		var code errors.ErrorCode
		switch {
		case stderrors.Is(err, services.ErrAccountLocked):
			code = errors.AuthAccountLocked
		case stderrors.Is(err, services.ErrInvalidCredentials):
			code = errors.AuthInvalidCredentials
		default:
			return SendSystemError(c, err)
		}
		if form {
			return h.renderLogin(c, errors.GetHTTPStatus(code), errors.GetErrorMessage(code), req.Email, req.Next)
		}
		return SendError(c, code)
	}

	h.setSessionCookie(c, tokens.AccessToken, tokens.ExpiresAt)

	if form {
		return c.Redirect(http.StatusFound, safeNext(req.Next))
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout revokes the presented access token and clears the session cookie
// @Summary Logout user
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse "Logout successful"
// @Success 302 "Browser logout redirects to the sign-in page"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 or AUTH_004"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := sessionToken(c)
	if !ok {
		if isFormPost(c) || WantsHTML(c) {
			return c.Redirect(http.StatusFound, LoginPath)
		}
		return SendError(c, errors.AuthInvalidTokenFormat)
	}

	if token != "" {
		if err := h.authService.Logout(token, c.RealIP(), c.Request().UserAgent()); err != nil {
			return SendSystemError(c, err)
		}
	}

	h.setSessionCookie(c, "", time.Unix(0, 0))

	if isFormPost(c) || WantsHTML(c) {
		return c.Redirect(http.StatusFound, LoginPath)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Logout successful"})
}

func (h *AuthHandler) renderLogin(c echo.Context, status int, message, email, next string) error {
	nonce, _ := c.Get(CSPNonceContextKey).(string)
	return c.Render(status, render.LoginTemplate, render.Page{
		Title: "Sign in",
		Nonce: nonce,
		Error: message,
		Email: email,
		Next:  safeNext(next),
	})
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		cookie.MaxAge = -1
	}
	c.SetCookie(cookie)
}

// sessionToken returns the bearer token or cookie value. ok is false when an
// Authorization header is present but malformed; an empty token with ok true
// means there is nothing to revoke.
func sessionToken(c echo.Context) (string, bool) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value, true
	}
	return "", true
}

func isFormPost(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm)
}

// safeNext only follows local absolute paths
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func formatFieldErrors(err error) string {
	fields := validation.FieldErrors(err)
	if len(fields) == 0 {
		return errors.GetErrorMessage(errors.ValidationGeneral)
	}

	parts := make([]string, 0, len(fields))
	for _, name := range []string{"email", "password"} {
		if msg, ok := fields[name]; ok {
			parts = append(parts, name+" "+msg)
		}
	}
	return strings.Join(parts, "; ")
}
