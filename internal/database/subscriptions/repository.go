// Package subscriptions provides database operations for premium plans,
// reader subscriptions and payments.
//
// # Usage
//
//	repo := subscriptions.NewRepository(db)
//	page, err := repo.ListPlans(subscriptions.PlanFilter{Search: "năm"})
//	sub, err := repo.Manage(userID, subscriptions.ManageRequest{Action: subscriptions.ActionExtend, DurationDays: 30}, time.Now())
package subscriptions

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/booklify/admin/internal/entities"
)

var (
	ErrPlanNotFound      = errors.New("subscription plan not found")
	ErrPlanExists        = errors.New("subscription plan already exists")
	ErrPlanNameRequired  = errors.New("plan name is required")
	ErrPriceRequired     = errors.New("price is required")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrInvalidDuration   = errors.New("duration must be a positive number of days")
	ErrInvalidPlanStatus = errors.New("status must be 0 or 1")
	// ErrPlanInUse is returned when deleting a plan readers currently hold.
	ErrPlanInUse = errors.New("subscription plan has active subscribers")
	// ErrPlanInactive is returned when granting a plan that is switched off.
	ErrPlanInactive = errors.New("subscription plan is inactive")

	ErrNoCurrentSubscription = errors.New("user has no active subscription")
	ErrAlreadySubscribed     = errors.New("user already has an active subscription")
	ErrUnknownAction         = errors.New("unknown subscription action")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Currency of every price and payment.
	Currency = "VND"
)

var planSortColumns = map[string]string{
	"name":          "name",
	"price":         "price",
	"duration":      "duration_days",
	"created_at":    "created_at",
	"modified_at":   "updated_at",
	"display_order": "display_order",
}

// PlanInput carries the editable plan fields. Nil fields are left unchanged
// on update; CreatePlan requires name, price and duration.
type PlanInput struct {
	Name         *string
	Description  *string
	Price        *int64
	DurationDays *int
	Features     *[]string
	IsPopular    *bool
	DisplayOrder *int
	Status       *entities.PlanStatus
}

// PlanFilter narrows down ListPlans. Nil pointers mean "any".
type PlanFilter struct {
	Search      string
	MinPrice    *int64
	MaxPrice    *int64
	MinDuration *int
	MaxDuration *int
	Status      *entities.PlanStatus
	IsPopular   *bool
	SortBy      string
	Ascending   bool
	Page        int // 1-based
	PageSize    int
}

// PlanPage is one page of plans.
type PlanPage struct {
	Items    []entities.SubscriptionPlan
	Total    int64
	Page     int
	PageSize int
}

// TotalPages returns the number of pages for the current page size.
func (p PlanPage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// Action is an admin operation on a reader's subscription.
type Action string

const (
	ActionExtend          Action = "extend"
	ActionCancel          Action = "cancel"
	ActionGift            Action = "gift"
	ActionToggleAutoRenew Action = "toggle_auto_renew"
	ActionResubscribe     Action = "re_subscription"
)

// ManageRequest describes one Action. PlanID is required for gift and
// re_subscription. DurationDays defaults to the plan's duration.
type ManageRequest struct {
	Action        Action
	PlanID        uint
	DurationDays  int
	Amount        *int64
	PaymentMethod string
	TransactionID string
}

// Repository handles all subscription database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new subscriptions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreatePlan stores a new plan. Plans start active unless in.Status says
// otherwise.
func (r *Repository) CreatePlan(in PlanInput) (*entities.SubscriptionPlan, error) {
	if in.Name == nil {
		return nil, ErrPlanNameRequired
	}
	if in.Price == nil {
		return nil, ErrPriceRequired
	}
	if in.DurationDays == nil {
		return nil, ErrInvalidDuration
	}

	plan := &entities.SubscriptionPlan{Status: entities.PlanStatusActive, Features: []string{}}
	if _, err := r.apply(plan, in, 0); err != nil {
		return nil, err
	}
	if err := r.db.Create(plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return plan, nil
}

// UpdatePlan applies the set fields of in.
func (r *Repository) UpdatePlan(id uint, in PlanInput) (*entities.SubscriptionPlan, error) {
	plan, err := r.GetPlan(id)
	if err != nil {
		return nil, err
	}
	updates, err := r.apply(plan, in, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return plan, nil
	}
	if err := r.db.Model(plan).Select(keys(updates)).Updates(plan).Error; err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return r.GetPlan(id)
}

// apply validates in and copies it onto plan. It returns the changed
// columns mapped to their struct field names.
func (r *Repository) apply(plan *entities.SubscriptionPlan, in PlanInput, id uint) (map[string]string, error) {
	changed := map[string]string{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrPlanNameRequired
		}
		if taken, err := r.nameTaken(name, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrPlanExists
		}
		plan.Name = name
		changed["name"] = "Name"
	}
	if in.Description != nil {
		plan.Description = strings.TrimSpace(*in.Description)
		changed["description"] = "Description"
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, ErrInvalidPrice
		}
		plan.Price = *in.Price
		changed["price"] = "Price"
	}
	if in.DurationDays != nil {
		if *in.DurationDays <= 0 {
			return nil, ErrInvalidDuration
		}
		plan.DurationDays = *in.DurationDays
		changed["duration_days"] = "DurationDays"
	}
	if in.Features != nil {
		features := make([]string, 0, len(*in.Features))
		for _, f := range *in.Features {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
		plan.Features = features
		changed["features"] = "Features"
	}
	if in.IsPopular != nil {
		plan.IsPopular = *in.IsPopular
		changed["is_popular"] = "IsPopular"
	}
	if in.DisplayOrder != nil {
		plan.DisplayOrder = *in.DisplayOrder
		changed["display_order"] = "DisplayOrder"
	}
	if in.Status != nil {
		if *in.Status != entities.PlanStatusActive && *in.Status != entities.PlanStatusInactive {
			return nil, ErrInvalidPlanStatus
		}
		plan.Status = *in.Status
		changed["status"] = "Status"
	}
	return changed, nil
}

func keys(m map[string]string) []string {
	fields := make([]string, 0, len(m))
	for _, field := range m {
		fields = append(fields, field)
	}
	return fields
}

// GetPlan retrieves a plan by ID.
func (r *Repository) GetPlan(id uint) (*entities.SubscriptionPlan, error) {
	var plan entities.SubscriptionPlan
	if err := r.db.First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListPlans returns one page of plans. Without a sort key plans come in
// display order.
func (r *Repository) ListPlans(filter PlanFilter) (*PlanPage, error) {
	query := r.db.Model(&entities.SubscriptionPlan{})

	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.MinDuration != nil {
		query = query.Where("duration_days >= ?", *filter.MinDuration)
	}
	if filter.MaxDuration != nil {
		query = query.Where("duration_days <= ?", *filter.MaxDuration)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsPopular != nil {
		query = query.Where("is_popular = ?", *filter.IsPopular)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count plans: %w", err)
	}

	page, size := normalizePaging(filter.Page, filter.PageSize)
	column, direction := "display_order", "ASC"
	if c, ok := planSortColumns[filter.SortBy]; ok {
		column = c
		if !filter.Ascending {
			direction = "DESC"
		}
	}

	var plans []entities.SubscriptionPlan
	err := query.Order(column + " " + direction).
		Order("id " + direction).
		Limit(size).
		Offset((page - 1) * size).
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return &PlanPage{Items: plans, Total: total, Page: page, PageSize: size}, nil
}

func normalizePaging(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// DeletePlan soft-deletes a plan nobody currently holds.
func (r *Repository) DeletePlan(id uint, now time.Time) error {
	var holders int64
	err := r.current(r.db.Model(&entities.UserSubscription{}), now).
		Where("plan_id = ?", id).
		Count(&holders).Error
	if err != nil {
		return err
	}
	if holders > 0 {
		return ErrPlanInUse
	}

	result := r.db.Delete(&entities.SubscriptionPlan{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// Statistics computes the plans dashboard counters at now.
func (r *Repository) Statistics(now time.Time) (*entities.SubscriptionStatistics, error) {
	var stats entities.SubscriptionStatistics
	plans := r.db.Model(&entities.SubscriptionPlan{})
	if err := plans.Count(&stats.TotalPlans).Error; err != nil {
		return nil, fmt.Errorf("failed to count plans: %w", err)
	}
	err := r.db.Model(&entities.SubscriptionPlan{}).
		Where("status = ?", entities.PlanStatusActive).
		Count(&stats.ActivePlans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active plans: %w", err)
	}
	err = r.current(r.db.Model(&entities.UserSubscription{}), now).
		Distinct("user_id").
		Count(&stats.ActiveSubscribers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count subscribers: %w", err)
	}
	err = r.db.Model(&entities.Payment{}).
		Where("status = ?", entities.PaymentStatusSuccess).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.Revenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	var top []entities.PlanSummary
	err = r.current(r.db.Table("user_subscriptions"), now).
		Select("user_subscriptions.plan_id AS id, subscription_plans.name AS name, COUNT(DISTINCT user_subscriptions.user_id) AS subscribers").
		Joins("JOIN subscription_plans ON subscription_plans.id = user_subscriptions.plan_id").
		Group("user_subscriptions.plan_id, subscription_plans.name").
		Order("subscribers DESC").
		Order("user_subscriptions.plan_id ASC").
		Limit(1).
		Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find popular plan: %w", err)
	}
	if len(top) > 0 {
		stats.PopularPlan = &top[0]
	}
	return &stats, nil
}

// Subscriptions returns a user's subscriptions, newest first, with their
// plans even when the plan has since been deleted.
func (r *Repository) Subscriptions(userID uint) ([]entities.UserSubscription, error) {
	var subs []entities.UserSubscription
	err := r.db.Preload("Plan", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Order("id DESC").
		Find(&subs).Error
	return subs, err
}

// CurrentSubscription returns the subscription granting access at now.
func (r *Repository) CurrentSubscription(userID uint, now time.Time) (*entities.UserSubscription, error) {
	return r.currentFor(r.db, userID, now)
}

func (r *Repository) currentFor(db *gorm.DB, userID uint, now time.Time) (*entities.UserSubscription, error) {
	var sub entities.UserSubscription
	err := r.current(db.Preload("Plan", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }), now).
		Where("user_id = ?", userID).
		Order("end_date DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCurrentSubscription
		}
		return nil, err
	}
	return &sub, nil
}

// Payments returns a user's payments, newest first.
func (r *Repository) Payments(userID uint) ([]entities.Payment, error) {
	var payments []entities.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&payments).Error
	return payments, err
}

// Manage runs one admin action on a user's subscription in a transaction
// and returns the affected subscription.
func (r *Repository) Manage(userID uint, req ManageRequest, now time.Time) (*entities.UserSubscription, error) {
	now = now.UTC()
	var result *entities.UserSubscription
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		switch req.Action {
		case ActionExtend, ActionCancel, ActionToggleAutoRenew:
			result, err = r.changeCurrent(tx, userID, req, now)
		case ActionGift, ActionResubscribe:
			result, err = r.grant(tx, userID, req, now)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) changeCurrent(tx *gorm.DB, userID uint, req ManageRequest, now time.Time) (*entities.UserSubscription, error) {
	sub, err := r.currentFor(tx, userID, now)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	switch req.Action {
	case ActionExtend:
		days := req.DurationDays
		if days == 0 {
			days = sub.Plan.DurationDays
		}
		if days <= 0 {
			return nil, ErrInvalidDuration
		}
		sub.EndDate = sub.EndDate.AddDate(0, 0, days)
		updates["end_date"] = sub.EndDate
	case ActionCancel:
		sub.IsActive, sub.AutoRenew = false, false
		updates["is_active"], updates["auto_renew"] = false, false
	case ActionToggleAutoRenew:
		sub.AutoRenew = !sub.AutoRenew
		updates["auto_renew"] = sub.AutoRenew
	}
	if err := tx.Model(sub).Omit("Plan").Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	return sub, nil
}

func (r *Repository) grant(tx *gorm.DB, userID uint, req ManageRequest, now time.Time) (*entities.UserSubscription, error) {
	if _, err := r.currentFor(tx, userID, now); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrNoCurrentSubscription) {
		return nil, err
	}

	var plan entities.SubscriptionPlan
	if err := tx.First(&plan, req.PlanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.Status != entities.PlanStatusActive {
		return nil, ErrPlanInactive
	}
	days := req.DurationDays
	if days == 0 {
		days = plan.DurationDays
	}
	if days <= 0 {
		return nil, ErrInvalidDuration
	}

	sub := &entities.UserSubscription{
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, days),
		IsActive:  true,
		IsGift:    req.Action == ActionGift,
	}
	if err := tx.Omit("Plan").Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	sub.Plan = plan

	if req.Action == ActionResubscribe {
		amount := plan.Price
		if req.Amount != nil {
			if *req.Amount < 0 {
				return nil, ErrInvalidPrice
			}
			amount = *req.Amount
		}
		method := strings.TrimSpace(req.PaymentMethod)
		if method == "" {
			method = "Admin"
		}
		paidAt := now
		payment := &entities.Payment{
			UserID:         userID,
			SubscriptionID: &sub.ID,
			Amount:         amount,
			Currency:       Currency,
			Method:         method,
			Status:         entities.PaymentStatusSuccess,
			TransactionID:  strings.TrimSpace(req.TransactionID),
			Description:    "Gia hạn gói " + plan.Name,
			PaidAt:         &paidAt,
		}
		if err := tx.Create(payment).Error; err != nil {
			return nil, fmt.Errorf("failed to record payment: %w", err)
		}
	}
	return sub, nil
}

// current restricts query to subscriptions granting access at now.
func (r *Repository) current(query *gorm.DB, now time.Time) *gorm.DB {
	now = now.UTC()
	return query.Where("user_subscriptions.is_active = ? AND user_subscriptions.start_date <= ? AND user_subscriptions.end_date > ?", true, now, now)
}

func (r *Repository) nameTaken(name string, exceptID uint) (bool, error) {
	var count int64
	query := r.db.Model(&entities.SubscriptionPlan{}).Where("LOWER(name) = LOWER(?)", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
