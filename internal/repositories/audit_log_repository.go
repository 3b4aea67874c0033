package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/drac2606/django-data-monitor/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepositoryInterface {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(entry *models.AuditLog) error {
	if entry == nil {
		return errors.New("audit log cannot be nil")
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List returns one page of matching entries, newest first, with the total
// number of matches.
func (r *AuditLogRepository) List(filter models.AuditLogFilter, offset, limit int) ([]*models.AuditLog, int64, error) {
	query := r.db.Model(&models.AuditLog{})
	if filter.UserID != uuid.Nil {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	logs := make([]*models.AuditLog, 0, limit)
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

// DeleteOlderThan hard-deletes entries created before now minus retention.
func (r *AuditLogRepository) DeleteOlderThan(retention time.Duration) (int64, error) {
	result := r.db.Where("created_at < ?", time.Now().Add(-retention)).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge audit logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
