package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var ErrUnauthorized = errors.New("unauthorized")

// getUserIDFromContext reads the user ID the auth middleware stored.
func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	if userID, ok := c.Get("user_id").(uuid.UUID); ok {
		return userID, nil
	}
	return uuid.Nil, ErrUnauthorized
}

// queryInt falls back to def when the parameter is absent or not an integer.
func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return n
}

// WantsHTML reports whether a browser is asking for a page. API paths
// always get JSON.
func WantsHTML(c echo.Context) bool {
	req := c.Request()
	return !strings.HasPrefix(req.URL.Path, "/api/") &&
		strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
