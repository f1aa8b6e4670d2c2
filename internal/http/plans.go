package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/audit"
	"github.com/booklify/admin/internal/database/subscriptions"
	"github.com/booklify/admin/internal/entities"
)

// PlansController manages the premium subscription plans.
type PlansController struct {
	store        PlanStore
	auditService *audit.Service
	now          func() time.Time
}

func NewPlansController(store PlanStore, auditService *audit.Service) *PlansController {
	return &PlansController{store: store, auditService: auditService, now: time.Now}
}

type planListResponse struct {
	Items      []entities.SubscriptionPlan `json:"items"`
	Total      int64                       `json:"total"`
	Page       int                         `json:"page"`
	PageSize   int                         `json:"page_size"`
	TotalPages int                         `json:"total_pages"`
}

type planRequest struct {
	Name         *string              `json:"name"`
	Description  *string              `json:"description"`
	Price        *int64               `json:"price"`
	Duration     *int                 `json:"duration"`
	Features     *[]string            `json:"features"`
	IsPopular    *bool                `json:"is_popular"`
	DisplayOrder *int                 `json:"display_order"`
	Status       *entities.PlanStatus `json:"status"`
}

func (r planRequest) input() subscriptions.PlanInput {
	return subscriptions.PlanInput{
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		DurationDays: r.Duration,
		Features:     r.Features,
		IsPopular:    r.IsPopular,
		DisplayOrder: r.DisplayOrder,
		Status:       r.Status,
	}
}

// ListPlans returns one page of plans.
// GET /subscriptions
func (pc *PlansController) ListPlans(c *gin.Context) {
	filter, ok := parsePlanFilter(c)
	if !ok {
		return
	}

	page, err := pc.store.ListPlans(filter)
	if err != nil {
		respondInternalError(c, err, "list plans")
		return
	}
	items := page.Items
	if items == nil {
		items = []entities.SubscriptionPlan{}
	}
	respondOK(c, "", planListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(),
	})
}

func parsePlanFilter(c *gin.Context) (subscriptions.PlanFilter, bool) {
	filter := subscriptions.PlanFilter{
		Search: c.Query("search"),
		SortBy: c.Query("sort_by"),
	}

	var ok bool
	if filter.MinPrice, ok = queryOptionalInt64(c, "min_price"); !ok {
		return filter, false
	}
	if filter.MaxPrice, ok = queryOptionalInt64(c, "max_price"); !ok {
		return filter, false
	}
	if filter.MinDuration, ok = queryOptionalInt(c, "min_duration"); !ok {
		return filter, false
	}
	if filter.MaxDuration, ok = queryOptionalInt(c, "max_duration"); !ok {
		return filter, false
	}
	if v := c.Query("status"); v != "" {
		switch v {
		case "0", "1":
			s := entities.PlanStatus(v[0] - '0')
			filter.Status = &s
		default:
			respondBadRequest(c, "invalid status")
			return filter, false
		}
	}
	if filter.IsPopular, ok = queryBool(c, "is_popular"); !ok {
		return filter, false
	}
	if filter.Ascending, ok = querySortDirection(c, "asc"); !ok {
		return filter, false
	}
	if filter.Page, ok = queryInt(c, "page", 1); !ok {
		return filter, false
	}
	if filter.PageSize, ok = queryInt(c, "page_size", subscriptions.DefaultPageSize); !ok {
		return filter, false
	}
	return filter, true
}

// GetPlan returns one plan.
// GET /subscriptions/:id
func (pc *PlansController) GetPlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	plan, err := pc.store.GetPlan(id)
	if err != nil {
		respondError(c, err, "get plan")
		return
	}
	respondOK(c, "", plan)
}

// GetStatistics returns the plans dashboard counters.
// GET /subscriptions/statistics
func (pc *PlansController) GetStatistics(c *gin.Context) {
	stats, err := pc.store.Statistics(pc.now())
	if err != nil {
		respondInternalError(c, err, "subscription statistics")
		return
	}
	respondOK(c, "", stats)
}

// CreatePlan adds a plan.
// POST /subscriptions
func (pc *PlansController) CreatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	plan, err := pc.store.CreatePlan(req.input())
	if err != nil {
		respondError(c, err, "create plan")
		return
	}
	if pc.auditService != nil {
		pc.auditService.LogPlanChange(actorFrom(c), plan.ID, "create", plan.Name)
	}
	respondCreated(c, "Tạo gói đăng ký thành công", plan)
}

// UpdatePlan changes the fields present in the body.
// PUT /subscriptions/:id
func (pc *PlansController) UpdatePlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	plan, err := pc.store.UpdatePlan(id, req.input())
	if err != nil {
		respondError(c, err, "update plan")
		return
	}
	if pc.auditService != nil {
		pc.auditService.LogPlanChange(actorFrom(c), plan.ID, "update", plan.Name)
	}
	respondOK(c, "Cập nhật gói đăng ký thành công", plan)
}

// DeletePlan removes a plan no reader currently holds.
// DELETE /subscriptions/:id
func (pc *PlansController) DeletePlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	plan, err := pc.store.GetPlan(id)
	if err != nil {
		respondError(c, err, "get plan")
		return
	}
	if err := pc.store.DeletePlan(id, pc.now()); err != nil {
		respondError(c, err, "delete plan")
		return
	}
	if pc.auditService != nil {
		pc.auditService.LogDelete(actorFrom(c), "plan", id, plan.Name)
	}
	respondOK(c, "Đã xoá gói đăng ký", gin.H{"id": id})
}
