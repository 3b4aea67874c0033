package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/drac2606/django-data-monitor/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type blacklistedTokenRepository struct {
	db *gorm.DB
}

func NewBlacklistedTokenRepository(db *gorm.DB) BlacklistedTokenRepositoryInterface {
	return &blacklistedTokenRepository{db: db}
}

// Create revokes a token. Revoking the same JTI twice is a no-op.
func (r *blacklistedTokenRepository) Create(token *models.BlacklistedToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}

	err := r.db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(token).Error
	if err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (r *blacklistedTokenRepository) IsBlacklisted(jti string) (bool, error) {
	var found int64
	err := r.db.Model(&models.BlacklistedToken{}).Where("jti = ?", jti).Count(&found).Error
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return found > 0, nil
}

// DeleteExpired drops revocations for tokens that would be rejected as expired anyway.
func (r *blacklistedTokenRepository) DeleteExpired() (int64, error) {
	result := r.db.Where("expires_at < ?", time.Now()).Delete(&models.BlacklistedToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge token blacklist: %w", result.Error)
	}
	return result.RowsAffected, nil
}
