// Package audit stores structured audit events.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/booklify/admin/internal/entities"
)

const defaultLimit = 50

// Query filters audit events. Zero values match everything.
type Query struct {
	UserID     uint
	EventType  entities.AuditEventType
	EntityType string
	EntityID   uint
	Limit      int
	Offset     int
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// Find returns events matching q ordered by most recent first, with the
// total number of matches.
func (r *Repository) Find(q Query) ([]entities.AuditEvent, int64, error) {
	var events []entities.AuditEvent
	var total int64

	query := r.db.Model(&entities.AuditEvent{})
	if q.UserID > 0 {
		query = query.Where("user_id = ?", q.UserID)
	}
	if q.EventType != "" {
		query = query.Where("event_type = ?", q.EventType)
	}
	if q.EntityType != "" {
		query = query.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityID > 0 {
		query = query.Where("entity_id = ?", q.EntityID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := q.Limit, q.Offset
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// GetEventsForBook retrieves the events recorded against one book.
func (r *Repository) GetEventsForBook(bookID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return r.Find(Query{EntityType: "book", EntityID: bookID, Limit: limit, Offset: offset})
}

// DeleteOldEvents removes events created before olderThan and returns how
// many were deleted.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
