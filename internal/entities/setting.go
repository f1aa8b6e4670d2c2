package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Signing key generated on first start when none is configured
	SettingKeyJWTSecret = "auth_jwt_secret"

	// Audit cleanup bookkeeping
	SettingKeyAuditCleanupLastAt      = "audit_cleanup_last_at"
	SettingKeyAuditCleanupLastStatus  = "audit_cleanup_last_status"
	SettingKeyAuditCleanupLastMessage = "audit_cleanup_last_message"
)
