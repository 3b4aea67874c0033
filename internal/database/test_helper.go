package database

import (
	"testing"

	"github.com/drac2606/django-data-monitor/internal/config"
	"github.com/drac2606/django-data-monitor/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a migrated in-memory sqlite database. The pool is pinned to
// one connection since each connection to ":memory:" sees its own database.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		Path:           ":memory:",
		MaxConnections: 1,
		MaxIdleConns:   1,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)

	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// CreateTestUser inserts a viewer holding the given dashboard permissions.
func CreateTestUser(t *testing.T, db *DB, email string, permissions ...string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "hashed_password",
		Role:         models.RoleViewer,
	}
	user.SetPermissions(permissions)

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create test user %s: %v", email, err)
	}
	return user
}

// CleanupTestDB hard-deletes every row, children first.
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	for _, model := range []any{&models.AuditLog{}, &models.BlacklistedToken{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			t.Logf("cleanup %T: %v", model, err)
		}
	}
}
