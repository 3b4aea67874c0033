package models

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleViewer = "viewer"
	RoleAdmin  = "admin"

	MaxFailedLoginAttempts = 5
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User is a dashboard account. Permissions holds a comma-separated list of
// codenames; admins are granted everything regardless of the list.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Email               string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash        string         `gorm:"type:varchar(255);not null" json:"-"`
	Role                string         `gorm:"type:varchar(20);not null;default:'viewer'" json:"role"`
	Permissions         string         `gorm:"type:text;not null;default:''" json:"-"`
	FailedLoginAttempts int            `gorm:"default:0" json:"-"`
	LockedAt            *time.Time     `gorm:"index" json:"locked_at,omitempty"`
	LastLoginAt         *time.Time     `gorm:"index" json:"last_login_at,omitempty"`
	CreatedAt           time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	return u.Validate()
}

func (u *User) BeforeUpdate(tx *gorm.DB) error {
	// column maps from Updates carry no full row to validate
	if tx != nil {
		if _, partial := tx.Statement.Dest.(map[string]interface{}); partial {
			return nil
		}
	}
	return u.Validate()
}

func (u *User) Validate() error {
	switch {
	case u.Email == "":
		return errors.New("email is required")
	case !emailRegex.MatchString(u.Email):
		return errors.New("invalid email format")
	case u.Role != RoleViewer && u.Role != RoleAdmin:
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	return ValidatePermissions(u.PermissionList())
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PermissionList returns the granted permission codenames
func (u *User) PermissionList() []string {
	return ParsePermissions(u.Permissions)
}

// HasPermission reports whether the user may use the given codename
func (u *User) HasPermission(codename string) bool {
	return u.IsAdmin() || slices.Contains(u.PermissionList(), codename)
}

// SetPermissions stores the codenames, dropping blanks and duplicates
func (u *User) SetPermissions(codenames []string) {
	u.Permissions = strings.Join(dedupe(codenames), ",")
}

func (u *User) IsLocked() bool {
	return u.LockedAt != nil
}

// IncrementFailedAttempts counts a bad password and locks the account once
// MaxFailedLoginAttempts is reached.
func (u *User) IncrementFailedAttempts() {
	if u.FailedLoginAttempts++; u.FailedLoginAttempts >= MaxFailedLoginAttempts {
		u.Lock()
	}
}

func (u *User) ResetFailedAttempts() {
	u.FailedLoginAttempts = 0
}

func (u *User) Lock() {
	at := time.Now()
	u.LockedAt, u.FailedLoginAttempts = &at, MaxFailedLoginAttempts
}

func (u *User) Unlock() {
	u.LockedAt, u.FailedLoginAttempts = nil, 0
}
