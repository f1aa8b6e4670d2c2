package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/booklify/admin/internal/entities"
	"github.com/booklify/admin/internal/tasks"
)

// TaskQueue is the part of the task client used for maintenance.
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// SettingsStore reads and records maintenance state.
type SettingsStore interface {
	GetValue(key string) (string, error)
	SetSetting(key, value string) error
}

// NextRunReporter reports the next scheduled run, nil when not scheduled.
type NextRunReporter interface {
	NextRunTime() *time.Time
}

type busyReporter interface {
	IsBusy() bool
}

// MaintenanceController exposes the audit retention cleanup. Without a
// queue the cleanup runs inside the request.
type MaintenanceController struct {
	settings      SettingsStore
	queue         TaskQueue
	schedule      NextRunReporter
	cleaner       tasks.AuditEventCleaner
	retentionDays int
}

func NewMaintenanceController(settings SettingsStore, queue TaskQueue, schedule NextRunReporter, cleaner tasks.AuditEventCleaner, retentionDays int) *MaintenanceController {
	return &MaintenanceController{
		settings:      settings,
		queue:         queue,
		schedule:      schedule,
		cleaner:       cleaner,
		retentionDays: retentionDays,
	}
}

type auditCleanupStatus struct {
	RetentionDays int        `json:"retention_days"`
	LastRunAt     string     `json:"last_run_at,omitempty"`
	LastStatus    string     `json:"last_status,omitempty"`
	LastMessage   string     `json:"last_message,omitempty"`
	NextRunAt     *time.Time `json:"next_run_at,omitempty"`
	Running       bool       `json:"running"`
	Queued        bool       `json:"queued"`
}

// AuditCleanupStatus reports the last and next cleanup.
// GET /maintenance/audit-cleanup
func (mc *MaintenanceController) AuditCleanupStatus(c *gin.Context) {
	status := auditCleanupStatus{RetentionDays: mc.retentionDays, Queued: mc.queue != nil}
	for key, dst := range map[string]*string{
		entities.SettingKeyAuditCleanupLastAt:      &status.LastRunAt,
		entities.SettingKeyAuditCleanupLastStatus:  &status.LastStatus,
		entities.SettingKeyAuditCleanupLastMessage: &status.LastMessage,
	} {
		v, err := mc.settings.GetValue(key)
		if err != nil {
			respondInternalError(c, err, "read cleanup status")
			return
		}
		*dst = v
	}
	if mc.schedule != nil {
		status.NextRunAt = mc.schedule.NextRunTime()
		if b, ok := mc.schedule.(busyReporter); ok {
			status.Running = b.IsBusy()
		}
	}
	respondOK(c, "", status)
}

// RunAuditCleanup triggers the cleanup now. An optional ?retention_days
// overrides the configured retention.
// POST /maintenance/audit-cleanup/run
func (mc *MaintenanceController) RunAuditCleanup(c *gin.Context) {
	days := mc.retentionDays
	if v := c.Query("retention_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondBadRequest(c, "invalid retention_days")
			return
		}
		days = n
	}
	task := tasks.CleanupAuditEventsTask{RetentionDays: days}

	if mc.queue == nil {
		if err := tasks.CleanupAuditEventsProcessor(mc.cleaner, mc.settings)(c.Request.Context(), task); err != nil {
			respondInternalError(c, err, "audit cleanup")
			return
		}
		message, _ := mc.settings.GetValue(entities.SettingKeyAuditCleanupLastMessage)
		respondOK(c, message, gin.H{"retention_days": days})
		return
	}

	ids, err := mc.queue.Add(task).Ctx(c.Request.Context()).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue audit cleanup")
		return
	}
	c.JSON(http.StatusAccepted, Envelope{
		Result:  resultSuccess,
		Message: "Đã xếp lịch dọn dẹp nhật ký",
		Data:    gin.H{"task_id": ids[0], "retention_days": days},
	})
}

// GetTaskStatus returns the state of a queued maintenance task.
// GET /maintenance/tasks/:id
func (mc *MaintenanceController) GetTaskStatus(c *gin.Context) {
	if mc.queue == nil {
		respondFailure(c, http.StatusNotFound, "task queue is disabled")
		return
	}
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := mc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondFailure(c, http.StatusNotFound, "task not found")
		return
	}
	respondOK(c, "", gin.H{"id": taskID, "status": taskStatusToString(status)})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
