package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const defaultMigrationsPath = "db/migrations"

// ErrNoMigrations is returned by Version when the migrations directory is missing.
var ErrNoMigrations = errors.New("migrations directory not found")

// MigrationRunner applies the SQL files under db/migrations to a postgres database.
type MigrationRunner struct {
	db             *sql.DB
	migrationsPath string

	// readiness check
	attempts int
	backoff  time.Duration
}

// NewMigrationRunner creates a runner. An empty path selects db/migrations.
func NewMigrationRunner(db *sql.DB, migrationsPath string) *MigrationRunner {
	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}
	return &MigrationRunner{
		db:             db,
		migrationsPath: migrationsPath,
		attempts:       30,
		backoff:        2 * time.Second,
	}
}

// OpenPostgres opens a plain database/sql handle through lib/pq, for running
// migrations without going through gorm. No connection is made until first use.
func OpenPostgres(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

// WaitForDatabase pings until the database answers, the attempts run out or ctx ends.
func (mr *MigrationRunner) WaitForDatabase(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= mr.attempts; attempt++ {
		if lastErr = mr.db.PingContext(ctx); lastErr == nil {
			slog.Info("database is ready", "attempt", attempt)
			return nil
		}
		slog.Warn("database not ready", "attempt", attempt, "max_attempts", mr.attempts, "error", lastErr)

		if attempt == mr.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(mr.backoff):
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", mr.attempts, lastErr)
}

func (mr *MigrationRunner) hasMigrations() bool {
	_, err := os.Stat(mr.migrationsPath)
	return !os.IsNotExist(err)
}

func (mr *MigrationRunner) open() (*migrate.Migrate, error) {
	absPath, err := filepath.Abs(mr.migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations path: %w", err)
	}

	driver, err := postgres.WithInstance(mr.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	return migrate.NewWithDatabaseInstance("file://"+absPath, "postgres", driver)
}

// Up applies every pending migration. A dirty schema is forced back to its
// recorded version first. A missing migrations directory is not an error.
func (mr *MigrationRunner) Up() error {
	if !mr.hasMigrations() {
		slog.Warn("migrations directory not found, skipping", "path", mr.migrationsPath)
		return nil
	}

	m, err := mr.open()
	if err != nil {
		return err
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		slog.Warn("schema is dirty, forcing version", "version", from)
		if err := m.Force(int(from)); err != nil {
			return fmt.Errorf("failed to force version %d: %w", from, err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("schema up to date", "version", from)
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	to, _, _ := m.Version()
	slog.Info("applied migrations", "from", from, "to", to)
	return nil
}

// Version reports the schema version recorded by golang-migrate.
func (mr *MigrationRunner) Version() (uint, bool, error) {
	if !mr.hasMigrations() {
		return 0, false, ErrNoMigrations
	}

	m, err := mr.open()
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}

// Migrate waits for the database and then applies pending migrations.
func (mr *MigrationRunner) Migrate(ctx context.Context) error {
	if err := mr.WaitForDatabase(ctx); err != nil {
		return fmt.Errorf("database readiness check failed: %w", err)
	}
	if err := mr.Up(); err != nil {
		return fmt.Errorf("migration execution failed: %w", err)
	}
	return nil
}

// RunMigrationsIfEnabled migrates only when AUTO_MIGRATE=true.
func RunMigrationsIfEnabled(ctx context.Context, db *sql.DB, migrationsPath string) error {
	if os.Getenv("AUTO_MIGRATE") != "true" {
		slog.Debug("auto-migration disabled")
		return nil
	}
	return NewMigrationRunner(db, migrationsPath).Migrate(ctx)
}
