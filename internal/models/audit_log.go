package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audited actions
const (
	AuditActionLogin              = "login"
	AuditActionLogout             = "logout"
	AuditActionFailedLogin        = "failed_login"
	AuditActionAccountLocked      = "account_locked"
	AuditActionAccountUnlocked    = "account_unlocked"
	AuditActionPermissionsChanged = "permissions_changed"
	AuditActionUserCreated        = "user_created"
	AuditActionUserDeleted        = "user_deleted"
	AuditActionReportViewed       = "report_viewed"
)

// IsAuditAction reports whether action is one of the AuditAction constants.
func IsAuditAction(action string) bool {
	switch action {
	case AuditActionLogin, AuditActionLogout, AuditActionFailedLogin,
		AuditActionAccountLocked, AuditActionAccountUnlocked, AuditActionPermissionsChanged,
		AuditActionUserCreated, AuditActionUserDeleted, AuditActionReportViewed:
		return true
	}
	return false
}

// AuditLogFilter narrows an audit trail query. Zero fields match everything.
type AuditLogFilter struct {
	UserID uuid.UUID
	Action string
}

// Audited resources
const (
	AuditResourceUser   = "user"
	AuditResourceReport = "report"
)

// AuditLog is one row of the audit trail: who did what to which user or
// dashboard, from where
type AuditLog struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	UserID     *uuid.UUID    `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action     string        `gorm:"type:varchar(100);not null;index" json:"action"`
	Resource   string        `gorm:"type:varchar(100);not null" json:"resource"`
	ResourceID string        `gorm:"type:varchar(255)" json:"resource_id,omitempty"`
	IPAddress  string        `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent  string        `gorm:"type:text" json:"user_agent,omitempty"`
	Metadata   AuditMetadata `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

// NewReportViewedLog records that userID opened a dashboard page. The page
// parameter is kept verbatim, as the paginator received it.
func NewReportViewedLog(userID uuid.UUID, source, page, ipAddress, userAgent string) *AuditLog {
	log := &AuditLog{
		UserID:     &userID,
		Action:     AuditActionReportViewed,
		Resource:   AuditResourceReport,
		ResourceID: source,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}
	if page != "" {
		log.SetMetadata("page", page)
	}
	return log
}

func (al *AuditLog) SetMetadata(key string, value any) {
	if al.Metadata == nil {
		al.Metadata = make(AuditMetadata)
	}
	al.Metadata[key] = value
}

// MetadataString returns the metadata value under key when it is a string
func (al *AuditLog) MetadataString(key string) string {
	s, _ := al.Metadata[key].(string)
	return s
}

func (al *AuditLog) String() string {
	actor := "anonymous"
	if al.UserID != nil {
		actor = al.UserID.String()
	}

	return fmt.Sprintf("%s %s %s/%s by %s from %s",
		al.CreatedAt.Format(time.RFC3339), al.Action, al.Resource, al.ResourceID, actor, al.IPAddress)
}

func (al *AuditLog) TableName() string {
	return "audit_logs"
}

func (al *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if al.ID == uuid.Nil {
		al.ID = uuid.New()
	}
	if al.CreatedAt.IsZero() {
		al.CreatedAt = time.Now()
	}
	return nil
}

// AuditMetadata is free-form context stored as a JSON text column, which
// postgres and sqlite both accept
type AuditMetadata map[string]any

func (m AuditMetadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *AuditMetadata) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AuditMetadata", value)
	}

	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, (*map[string]any)(m))
}
