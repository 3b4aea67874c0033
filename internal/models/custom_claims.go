package models

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims represents the custom claims in our JWT tokens
type CustomClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission mirrors User.HasPermission for an authenticated request
func (c *CustomClaims) HasPermission(codename string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return slices.Contains(c.Permissions, codename)
}
