package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/booklify/admin/internal/entities"
)

// DefaultRetentionDays applies when a task carries no retention.
const DefaultRetentionDays = 90

// AuditEventCleaner deletes old audit events and records maintenance runs.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
	LogMaintenance(action, description string, err error)
}

// StatusRecorder persists the outcome of the last cleanup.
type StatusRecorder interface {
	SetSetting(key, value string) error
}

// CleanupAuditEventsTask removes audit events older than RetentionDays.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupAuditEventsProcessor returns the queue processor. recorder may be
// nil.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner, recorder StatusRecorder) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errors.New("audit event cleaner not configured")
		}

		days := task.RetentionDays
		if days <= 0 {
			days = DefaultRetentionDays
		}

		deleted, err := cleaner.DeleteOldEvents(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			err = fmt.Errorf("cleanup audit events: %w", err)
		}

		message := fmt.Sprintf("Deleted %d audit events older than %d days", deleted, days)
		if err != nil {
			message = err.Error()
		}
		cleaner.LogMaintenance("audit_cleanup", message, err)
		recordCleanup(recorder, time.Now(), message, err)

		if err != nil {
			return err
		}
		log.Info().Int64("deleted", deleted).Int("retention_days", days).Msg("Cleaned up audit events")
		return nil
	}
}

func recordCleanup(recorder StatusRecorder, at time.Time, message string, err error) {
	if recorder == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	for key, value := range map[string]string{
		entities.SettingKeyAuditCleanupLastAt:      at.UTC().Format(time.RFC3339),
		entities.SettingKeyAuditCleanupLastStatus:  status,
		entities.SettingKeyAuditCleanupLastMessage: message,
	} {
		if setErr := recorder.SetSetting(key, value); setErr != nil {
			log.Warn().Err(setErr).Str("key", key).Msg("Failed to record audit cleanup status")
		}
	}
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner, recorder StatusRecorder) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner, recorder))
}
