package services

import (
	"context"
	"time"

	"github.com/drac2606/django-data-monitor/internal/dto"
	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/report"

	"github.com/google/uuid"
)

// UpstreamServiceInterface fetches raw records from the remote JSON API
type UpstreamServiceInterface interface {
	// FetchRecords downloads every record of the named source
	FetchRecords(ctx context.Context, source string) ([]models.Record, error)
}

// DashboardServiceInterface builds the dashboards from freshly fetched records
type DashboardServiceInterface interface {
	PostsReport(ctx context.Context, page string) (*report.PostsView, error)
	ReservationsReport(ctx context.Context, page string) (*report.ReservationsView, error)
}

// AuditServiceInterface defines the contract for audit logging operations
type AuditServiceInterface interface {
	CreateAuditLog(entry *models.AuditLog) error
	GetUserActivity(userID uuid.UUID, action string, offset, limit int) ([]*models.AuditLog, int64, error)
	LogReportViewed(userID uuid.UUID, source, page, ipAddress, userAgent string) error
	PurgeOlderThan(retention time.Duration) (int64, error)
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration, tags map[string]string)
	RecordGauge(name string, value float64, tags map[string]string)
}

type AuthServiceInterface interface {
	Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error)
	Logout(accessToken, ipAddress, userAgent string) error
	CreateUser(req *dto.CreateUserRequest) (*models.User, error)
}

type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
	GetTokenClaims(tokenString string) (*models.CustomClaims, error)
}

type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
}

type AuditLoggerInterface interface {
	LogUpstreamRequest(ctx context.Context, source, url string)
	LogUpstreamFailure(ctx context.Context, source, errorMsg string, durationMs int64)
	LogReportBuilt(ctx context.Context, source string, records, page int, durationMs int64)
	LogCircuitBreakerStateChange(ctx context.Context, service string, oldState, newState string)
	LogAuthorizationFailure(ctx context.Context, path, userID, permission string)
}

type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	Release()
	GetState() models.CircuitBreakerState
	Reset()
	GetFailureCount() int
}
