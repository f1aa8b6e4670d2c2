package http

import (
	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/audit"
	auditrepo "github.com/booklify/admin/internal/database/audit"
	"github.com/booklify/admin/internal/entities"
)

const (
	defaultAuditLimit = 25
	maxAuditLimit     = 100
)

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

type auditEventsResponse struct {
	Events      []entities.AuditEvent `json:"events"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
	TotalPages  int                   `json:"total_pages"`
	TotalEvents int64                 `json:"total_events"`
}

// GetAuditEvents returns paginated audit events. Filters: user_id, type,
// entity_type, entity_id.
// GET /audit-events
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", defaultAuditLimit)
	if !ok {
		return
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}

	q := auditrepo.Query{
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity_type"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if q.UserID, ok = queryUint(c, "user_id"); !ok {
		return
	}
	if q.EntityID, ok = queryUint(c, "entity_id"); !ok {
		return
	}

	events, total, err := ac.auditService.GetEvents(q)
	if err != nil {
		respondInternalError(c, err, "get audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	pages := totalPages(total, limit)
	if pages < 1 {
		pages = 1
	}
	respondOK(c, "", auditEventsResponse{
		Events:      events,
		Page:        page,
		Limit:       limit,
		TotalPages:  pages,
		TotalEvents: total,
	})
}
