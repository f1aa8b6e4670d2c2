package audit

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/database/audit"
	"github.com/booklify/admin/internal/entities"
)

// Actor identifies who performed an action and from where.
type Actor struct {
	UserID    uint
	IPAddress string
	UserAgent string
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Error().Err(err).
				Str("action", event.Action).
				Uint("user_id", event.UserID).
				Msg("Failed to log audit event")
		}
	}()
}

// Flush blocks until all pending asynchronous writes are done.
func (s *Service) Flush() {
	s.pending.Wait()
}

// LogStatusChange records an approve or reject decision on a book.
func (s *Service) LogStatusChange(actor Actor, bookID uint, from, to approval.Status, note string, err error) {
	fromInt, toInt := int(from), int(to)
	event := &entities.AuditEvent{
		UserID:      actor.UserID,
		EventType:   entities.AuditEventStatusChange,
		Action:      "book_" + actionVerb(to),
		Description: fmt.Sprintf("Book %d: %s -> %s", bookID, from, to),
		EntityType:  "book",
		EntityID:    &bookID,
		FromStatus:  &fromInt,
		ToStatus:    &toInt,
		IPAddress:   actor.IPAddress,
		UserAgent:   truncate(actor.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}
	event.Metadata = metadata(map[string]any{"note": note})
	markFailure(event, err)

	s.LogAsync(event)
}

// LogResubmit records a resubmission of a rejected book.
func (s *Service) LogResubmit(actor Actor, bookID uint, note string, err error) {
	from, to := int(approval.StatusRejected), int(approval.StatusPending)
	event := &entities.AuditEvent{
		UserID:      actor.UserID,
		EventType:   entities.AuditEventResubmit,
		Action:      "book_resubmit",
		Description: fmt.Sprintf("Book %d resubmitted for approval", bookID),
		EntityType:  "book",
		EntityID:    &bookID,
		FromStatus:  &from,
		ToStatus:    &to,
		IPAddress:   actor.IPAddress,
		UserAgent:   truncate(actor.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}
	event.Metadata = metadata(map[string]any{"note": note})
	markFailure(event, err)

	s.LogAsync(event)
}

// LogBookCreate records a new upload.
func (s *Service) LogBookCreate(actor Actor, bookID uint, title string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actor.UserID,
		EventType:   entities.AuditEventBookCreate,
		Action:      "book_create",
		Description: "Created book: " + title,
		EntityType:  "book",
		EntityID:    &bookID,
		IPAddress:   actor.IPAddress,
		UserAgent:   truncate(actor.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	})
}

// LogDelete records a deletion event.
func (s *Service) LogDelete(actor Actor, entityType string, entityID uint, entityName string) {
	event := &entities.AuditEvent{
		UserID:      actor.UserID,
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: "Deleted " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    &entityID,
		IPAddress:   actor.IPAddress,
		UserAgent:   truncate(actor.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogAccountChange records an admin edit of a user account, e.g.
// "user_deactivate".
func (s *Service) LogAccountChange(actor Actor, userID uint, action, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actor.UserID,
		EventType:   entities.AuditEventAccount,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  "user",
		EntityID:    &userID,
		IPAddress:   actor.IPAddress,
		UserAgent:   truncate(actor.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	})
}

// LogPlanChange records the creation or edit of a subscription plan.
func (s *Service) LogPlanChange(actor Actor, planID uint, action, planName string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actor.UserID,
		EventType:   entities.AuditEventSubscription,
		Action:      "plan_" + action,
		Description: truncate(fmt.Sprintf("Plan %s: %s", action, planName), 500),
		EntityType:  "plan",
		EntityID:    &planID,
		IPAddress:   actor.IPAddress,
		UserAgent:   truncate(actor.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	})
}

// LogSubscriptionChange records an admin action on a reader's subscription.
// A non-nil err marks the event failed.
func (s *Service) LogSubscriptionChange(actor Actor, userID uint, action string, details map[string]any, err error) {
	event := &entities.AuditEvent{
		UserID:      actor.UserID,
		EventType:   entities.AuditEventSubscription,
		Action:      "subscription_" + action,
		Description: fmt.Sprintf("Subscription %s for user %d", action, userID),
		EntityType:  "user",
		EntityID:    &userID,
		IPAddress:   actor.IPAddress,
		UserAgent:   truncate(actor.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}
	if len(details) > 0 {
		event.Metadata = metadata(details)
	}
	markFailure(event, err)
	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(actor Actor, action string, success bool) {
	event := &entities.AuditEvent{
		UserID:    actor.UserID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: actor.IPAddress,
		UserAgent: truncate(actor.UserAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogMaintenance records a system maintenance run such as retention cleanup.
func (s *Service) LogMaintenance(action, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}
	markFailure(event, err)

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(q audit.Query) ([]entities.AuditEvent, int64, error) {
	return s.repo.Find(q)
}

// GetEventsForBook retrieves the events recorded against one book.
func (s *Service) GetEventsForBook(bookID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsForBook(bookID, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func actionVerb(to approval.Status) string {
	switch to {
	case approval.StatusApproved:
		return "approve"
	case approval.StatusRejected:
		return "reject"
	default:
		return "status_change"
	}
}

func markFailure(event *entities.AuditEvent, err error) {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
}

func metadata(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
