package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/drac2606/django-data-monitor/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository stores dashboard accounts. Deletes are soft, so a deleted
// user disappears from every lookup but keeps its audit trail.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepositoryInterface {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}

	err := r.db.Create(user).Error
	switch {
	case err == nil:
		return nil
	case isDuplicateKeyError(err):
		return ErrUserAlreadyExists
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}

func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	return r.findOne("id = ?", id)
}

// GetByEmail matches case-insensitively.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.findOne("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) findOne(query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.Where(query, arg).Take(user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// UpdatePermissions replaces the granted codenames after validating them.
func (r *UserRepository) UpdatePermissions(userID uuid.UUID, permissions []string) error {
	if err := models.ValidatePermissions(permissions); err != nil {
		return err
	}

	var holder models.User
	holder.SetPermissions(permissions)
	return r.update(userID, map[string]any{"permissions": holder.Permissions})
}

// UpdateFailedLoginAttempts persists the counter and lock timestamp held on user.
func (r *UserRepository) UpdateFailedLoginAttempts(user *models.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	return r.update(user.ID, map[string]any{
		"failed_login_attempts": user.FailedLoginAttempts,
		"locked_at":             user.LockedAt,
	})
}

func (r *UserRepository) UpdateLastLogin(userID uuid.UUID, at time.Time) error {
	return r.update(userID, map[string]any{"last_login_at": at})
}

func (r *UserRepository) UnlockAccount(userID uuid.UUID) error {
	return r.update(userID, map[string]any{
		"failed_login_attempts": 0,
		"locked_at":             nil,
	})
}

func (r *UserRepository) Delete(userID uuid.UUID) error {
	result := r.db.Delete(&models.User{}, "id = ?", userID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns one page of users ordered by email, plus the total count.
func (r *UserRepository) ListUsers(offset, limit int) ([]*models.User, int64, error) {
	var total int64
	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users := make([]*models.User, 0, limit)
	if err := r.db.Order("email").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) update(userID uuid.UUID, columns map[string]any) error {
	if userID == uuid.Nil {
		return errors.New("user ID cannot be nil")
	}

	result := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// isDuplicateKeyError relies on gorm's error translation and falls back to the
// driver messages (postgres SQLSTATE 23505, sqlite UNIQUE constraint).
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint")
}
