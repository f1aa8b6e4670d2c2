package entities

import "time"

type AuditEventType string

const (
	AuditEventStatusChange AuditEventType = "status_change"
	AuditEventResubmit     AuditEventType = "resubmit"
	AuditEventBookCreate   AuditEventType = "book_create"
	AuditEventDelete       AuditEventType = "delete"
	AuditEventAuth         AuditEventType = "auth"
	AuditEventMaintenance  AuditEventType = "maintenance"
	AuditEventAccount      AuditEventType = "account"
	AuditEventSubscription AuditEventType = "subscription"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is the structured, queryable record of an action taken through
// the CMS. The approval note of a book remains the human-readable trail;
// events add who did it and from where.
type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g. "book_approve", "login"
	Description string         `gorm:"size:500" json:"description"` // human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type"`
	EntityID    *uint          `gorm:"index" json:"entity_id,omitempty"`
	FromStatus  *int           `json:"from_status,omitempty"`
	ToStatus    *int           `json:"to_status,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	IPAddress   string         `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   string         `gorm:"size:500" json:"user_agent,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
