package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlacklistedToken revokes one access token, by JWT ID, until the token would
// have expired on its own.
type BlacklistedToken struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	JTI           string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"jti"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt     time.Time `gorm:"not null;index" json:"expires_at"`
	BlacklistedAt time.Time `gorm:"not null" json:"blacklisted_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// NewBlacklistedToken revokes the token the claims were read from. Claims
// without an expiry keep the revocation for fallbackTTL.
func NewBlacklistedToken(claims *CustomClaims, fallbackTTL time.Duration) (*BlacklistedToken, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}

	token := &BlacklistedToken{JTI: claims.ID, UserID: userID}
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		token.ExpiresAt = exp.Time
	} else {
		token.ExpiresAt = time.Now().Add(fallbackTTL)
	}
	return token, nil
}

func (*BlacklistedToken) TableName() string { return "blacklisted_tokens" }

func (bt *BlacklistedToken) BeforeCreate(*gorm.DB) error {
	if bt.ID == uuid.Nil {
		bt.ID = uuid.New()
	}
	if bt.BlacklistedAt.IsZero() {
		bt.BlacklistedAt = time.Now()
	}
	return nil
}
