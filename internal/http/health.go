package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/database"
)

// Pinger is a dependency whose liveness the health report checks.
type Pinger interface {
	Ping() error
}

type HealthReport struct {
	Healthy   bool              `json:"healthy"`
	CheckedAt time.Time         `json:"checked_at"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks"`
}

type HealthController struct {
	pingers  map[string]Pinger
	schedule NextRunReporter
	version  string
}

// NewHealthController checks db under the "database" key. A nil db is
// reported as not configured.
func NewHealthController(db *database.Database, version string) *HealthController {
	hc := &HealthController{pingers: map[string]Pinger{}, version: version}
	if db != nil {
		hc.pingers["database"] = db
	}
	return hc
}

// WithSchedule adds the next audit cleanup run to the report.
func (h *HealthController) WithSchedule(schedule NextRunReporter) *HealthController {
	h.schedule = schedule
	return h
}

// Status answers 503 with a failure envelope when any dependency is down.
// GET /health
func (h *HealthController) Status(c *gin.Context) {
	report := HealthReport{
		Healthy:   true,
		CheckedAt: time.Now().UTC(),
		Version:   h.version,
		Checks:    map[string]string{"database": "not configured"},
	}
	for name, p := range h.pingers {
		if err := p.Ping(); err != nil {
			report.Checks[name] = "error: " + err.Error()
			report.Healthy = false
			continue
		}
		report.Checks[name] = "ok"
	}
	if h.schedule != nil {
		if next := h.schedule.NextRunTime(); next != nil {
			report.Checks["audit_cleanup"] = "next run " + next.UTC().Format(time.RFC3339)
		} else {
			report.Checks["audit_cleanup"] = "not scheduled"
		}
	}

	if !report.Healthy {
		c.JSON(http.StatusServiceUnavailable, Envelope{Result: resultFailure, Message: "unhealthy", Data: report})
		return
	}
	respondOK(c, "healthy", report)
}

// Ping is a liveness check.
// GET /ping
func (h *HealthController) Ping(c *gin.Context) {
	respondOK(c, "pong", nil)
}
