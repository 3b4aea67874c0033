package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidUserID    = errors.New("invalid user ID")
	ErrInvalidAuditLog  = errors.New("invalid audit log")
	ErrInvalidAction    = errors.New("invalid audit action")
	ErrInvalidRetention = errors.New("retention must be positive")
)

// AuditService keeps the persistent trail of logins, admin changes and
// dashboard views in audit_logs.
type AuditService struct {
	repo repositories.AuditLogRepositoryInterface
}

func NewAuditService(repo repositories.AuditLogRepositoryInterface) AuditServiceInterface {
	return &AuditService{repo: repo}
}

func (s *AuditService) CreateAuditLog(entry *models.AuditLog) error {
	if entry == nil {
		return ErrInvalidAuditLog
	}
	if !models.IsAuditAction(entry.Action) {
		return fmt.Errorf("%w: %q", ErrInvalidAction, entry.Action)
	}

	if err := s.repo.Create(entry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// GetUserActivity pages through what userID did, newest first. A non-empty
// action keeps only entries of that kind.
func (s *AuditService) GetUserActivity(userID uuid.UUID, action string, offset, limit int) ([]*models.AuditLog, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, ErrInvalidUserID
	}
	if action != "" && !models.IsAuditAction(action) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	return s.repo.List(models.AuditLogFilter{UserID: userID, Action: action}, offset, limit)
}

func (s *AuditService) LogReportViewed(userID uuid.UUID, source, page, ipAddress, userAgent string) error {
	return s.CreateAuditLog(models.NewReportViewedLog(userID, source, page, ipAddress, userAgent))
}

// PurgeOlderThan enforces the audit retention window.
func (s *AuditService) PurgeOlderThan(retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, ErrInvalidRetention
	}
	return s.repo.DeleteOlderThan(retention)
}
