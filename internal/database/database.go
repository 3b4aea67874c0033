package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/drac2606/django-data-monitor/internal/config"
	"github.com/drac2606/django-data-monitor/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the gorm handle shared by the repositories.
type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

// postgresIndexes are the expression and partial indexes gorm tags cannot declare.
var postgresIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users(LOWER(email))",
	"CREATE INDEX IF NOT EXISTS idx_users_locked_at ON users(locked_at) WHERE locked_at IS NOT NULL",
	"CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON users(deleted_at) WHERE deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_created ON audit_logs(user_id, created_at DESC)",
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.Path), nil
	}
	return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
}

// New connects with the configured pool limits and verifies the connection.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dial, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: gdb, config: cfg}
	pool, err := db.pool()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(cfg.MaxConnections)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pool.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (db *DB) pool() (*sql.DB, error) {
	pool, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return pool, nil
}

// AutoMigrate creates or updates the tables from the gorm models.
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(&models.User{}, &models.BlacklistedToken{}, &models.AuditLog{})
}

func (db *DB) Close() error {
	pool, err := db.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	pool, err := db.pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// CreateIndexes is a no-op outside postgres. Individual failures are logged
// and skipped.
func (db *DB) CreateIndexes() error {
	if db.config == nil || db.config.Driver != config.DriverPostgres {
		return nil
	}
	for _, stmt := range postgresIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			slog.Warn("failed to create index", "statement", stmt, "error", err)
		}
	}
	return nil
}

// Initialize opens the configured database and brings its schema up to date.
// Postgres applies the SQL migrations when AUTO_MIGRATE=true and falls back to
// AutoMigrate if they fail; sqlite always uses AutoMigrate.
func Initialize(cfg *config.Config) (*DB, error) {
	db, err := New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database initialized", "driver", cfg.Database.Driver)
	return db, nil
}

func (db *DB) migrate() error {
	if db.config.Driver != config.DriverPostgres {
		return db.AutoMigrate()
	}

	pool, err := db.pool()
	if err != nil {
		return err
	}
	if err := RunMigrationsIfEnabled(context.Background(), pool, db.config.MigrationsPath); err != nil {
		slog.Warn("migration runner failed, falling back to AutoMigrate", "error", err)
		if err := db.AutoMigrate(); err != nil {
			return err
		}
	}

	if err := db.CreateIndexes(); err != nil {
		slog.Warn("failed to create some indexes", "error", err)
	}
	return nil
}
