package dto

import "time"

// Auth Request DTOs

// LoginRequest contains login credentials. The dashboard login form posts the
// same fields as the JSON API.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	Next     string `json:"next,omitempty" form:"next"`
}

// CreateUserRequest contains the data needed to provision a dashboard user
type CreateUserRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=12,max=72"`
	Role        string   `json:"role" validate:"omitempty,role"`
	Permissions []string `json:"permissions" validate:"dive,permission"`
}

// UpdatePermissionsRequest replaces a user's permission codenames
type UpdatePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,permission"`
}

// Auth Response DTOs

// TokenResponse contains the issued access token
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// UserResponse represents a dashboard user without credentials
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
}
