package repositories

import (
	"time"

	"github.com/drac2606/django-data-monitor/internal/models"

	"github.com/google/uuid"
)

type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdatePermissions(userID uuid.UUID, permissions []string) error
	UpdateFailedLoginAttempts(user *models.User) error
	UpdateLastLogin(userID uuid.UUID, at time.Time) error
	UnlockAccount(userID uuid.UUID) error
	Delete(userID uuid.UUID) error
	ListUsers(offset, limit int) ([]*models.User, int64, error)
}

type AuditLogRepositoryInterface interface {
	Create(entry *models.AuditLog) error
	List(filter models.AuditLogFilter, offset, limit int) ([]*models.AuditLog, int64, error)
	DeleteOlderThan(retention time.Duration) (int64, error)
}

// BlacklistedTokenRepositoryInterface tracks signed-out access tokens.
type BlacklistedTokenRepositoryInterface interface {
	Create(token *models.BlacklistedToken) error
	IsBlacklisted(jti string) (bool, error)
	DeleteExpired() (int64, error)
}
