package config

import (
	"crypto/rsa"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Port             string `validate:"required,numeric"`
	Host             string
	Environment      string `validate:"oneof=development testing production"`
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
}

// UpstreamConfig describes the remote JSON API the dashboards are built from
type UpstreamConfig struct {
	PostsURL        string `validate:"required,url"`
	ReservationsURL string `validate:"required,url"`
	APIKey          string
	Timeout         time.Duration `validate:"gt=0"`

	BreakerMaxFailures  int           `validate:"gte=1"`
	BreakerResetTimeout time.Duration `validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver          string `validate:"oneof=postgres sqlite"`
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	Path            string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

type JWTConfig struct {
	AccessTokenDuration time.Duration
	PrivateKey          *rsa.PrivateKey
	PublicKey           *rsa.PublicKey
	Issuer              string
}

type SecurityConfig struct {
	BCryptCost         int `validate:"gte=4,lte=31"`
	RateLimitPerSecond int `validate:"gte=1"`
	RateLimitBurst     int `validate:"gte=1"`
	CookieSecure       bool
	AuditLogRetention  time.Duration
}

// Load reads the process environment. Values that fail to parse fall back
// to their defaults; the assembled sections are then validated.
func Load() (*Config, error) {
	var env environment

	cfg := &Config{}
	cfg.Server = ServerConfig{
		Port:            env.str("SERVER_PORT", "8080"),
		Host:            env.str("SERVER_HOST", "localhost"),
		Environment:     env.str("APP_ENV", "development"),
		ReadTimeout:     env.duration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    env.duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: env.duration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	cfg.Upstream = UpstreamConfig{
		PostsURL:            env.str("UPSTREAM_POSTS_URL", "https://jsonplaceholder.typicode.com/posts"),
		ReservationsURL:     env.str("UPSTREAM_RESERVATIONS_URL", "http://localhost:9000/reservations.json"),
		APIKey:              env.str("UPSTREAM_API_KEY", ""),
		Timeout:             env.duration("UPSTREAM_TIMEOUT", 10*time.Second),
		BreakerMaxFailures:  env.integer("UPSTREAM_BREAKER_MAX_FAILURES", 5),
		BreakerResetTimeout: env.duration("UPSTREAM_BREAKER_RESET_TIMEOUT", 30*time.Second),
	}
	cfg.Database = DatabaseConfig{
		Driver:          env.str("DB_DRIVER", DriverSQLite),
		Host:            env.str("DB_HOST", "localhost"),
		Port:            env.str("DB_PORT", "5432"),
		User:            env.str("DB_USER", "monitor_user"),
		Password:        env.str("DB_PASSWORD", "monitor_password"),
		Name:            env.str("DB_NAME", "monitor_db"),
		SSLMode:         env.str("DB_SSL_MODE", "disable"),
		Path:            env.str("DB_PATH", "data-monitor.db"),
		MaxConnections:  env.integer("DB_MAX_CONNECTIONS", 10),
		MaxIdleConns:    env.integer("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", time.Hour),
		MigrationsPath:  env.str("DB_MIGRATIONS_PATH", "db/migrations"),
	}
	cfg.Security = SecurityConfig{
		BCryptCost:         env.integer("BCRYPT_COST", 12),
		RateLimitPerSecond: env.integer("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     env.integer("RATE_LIMIT_BURST", 10),
		CookieSecure:       env.boolean("COOKIE_SECURE", false),
		AuditLogRetention:  env.duration("AUDIT_LOG_RETENTION", 90*24*time.Hour),
	}
	cfg.JWT = JWTConfig{
		AccessTokenDuration: env.duration("JWT_ACCESS_TOKEN_DURATION", 8*time.Hour),
		Issuer:              env.str("JWT_ISSUER", "data-monitor"),
	}
	cfg.Server.CORSAllowOrigins = corsOrigins(env.list("CORS_ALLOW_ORIGINS"), cfg.IsProduction())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	keys, err := loadSigningKeys(env.str("JWT_PRIVATE_KEY", ""), env.str("JWT_PUBLIC_KEY", ""), cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("failed to load RSA keys: %w", err)
	}
	cfg.JWT.PrivateKey, cfg.JWT.PublicKey = keys.private, keys.public

	return cfg, nil
}

// Validate checks the struct tags of every section
func (c *Config) Validate() error {
	v := validator.New()

	for _, section := range []any{&c.Server, &c.Upstream, &c.Database, &c.Security} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the postgres connection URL expected by lib/pq and golang-migrate
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) IsDevelopment() bool { return c.Server.Environment == "development" }
func (c *Config) IsProduction() bool  { return c.Server.Environment == "production" }
func (c *Config) IsTesting() bool     { return c.Server.Environment == "testing" }

func corsOrigins(configured []string, production bool) []string {
	if len(configured) > 0 {
		return configured
	}
	if production {
		slog.Warn("CORS_ALLOW_ORIGINS not set in production environment, defaulting to '*'")
	}
	return []string{"*"}
}

// environment reads typed values, treating empty and unparsable variables
// as unset.
type environment struct{}

func (environment) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (e environment) integer(key string, def int) int {
	if n, err := strconv.Atoi(e.str(key, "")); err == nil {
		return n
	}
	return def
}

func (e environment) boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return b
	}
	return def
}

func (e environment) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key, "")); err == nil {
		return d
	}
	return def
}

func (e environment) list(key string) []string {
	var out []string
	for _, item := range strings.Split(e.str(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
