package entities

import (
	"time"

	"gorm.io/gorm"
)

// PlanStatus switches a subscription plan on or off in the reader app.
type PlanStatus int

const (
	PlanStatusInactive PlanStatus = 0
	PlanStatusActive   PlanStatus = 1
)

func (s PlanStatus) String() string {
	if s == PlanStatusActive {
		return "Active"
	}
	return "Inactive"
}

// SubscriptionPlan is a premium plan readers can buy. Prices are whole VND.
type SubscriptionPlan struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"index;size:255" json:"name"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	Price        int64      `json:"price"`
	DurationDays int        `json:"duration"`
	Features     []string   `gorm:"serializer:json;type:text" json:"features"`
	IsPopular    bool       `json:"is_popular"`
	DisplayOrder int        `gorm:"index" json:"display_order"`
	Status       PlanStatus `gorm:"index" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"modified_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// UserSubscription is one period of a reader's access to a plan.
type UserSubscription struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index" json:"user_id"`
	PlanID    uint             `gorm:"index" json:"plan_id"`
	Plan      SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `gorm:"index" json:"end_date"`
	IsActive  bool             `gorm:"index" json:"is_active"`
	AutoRenew bool             `json:"auto_renew"`
	IsGift    bool             `json:"is_gift"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"modified_at"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

// CurrentAt reports whether the subscription grants access at t.
func (s *UserSubscription) CurrentAt(t time.Time) bool {
	return s.IsActive && !t.Before(s.StartDate) && t.Before(s.EndDate)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusSuccess  PaymentStatus = "Success"
	PaymentStatusFailed   PaymentStatus = "Failed"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

// Payment records money received for a subscription.
type Payment struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"index" json:"user_id"`
	SubscriptionID *uint         `gorm:"index" json:"subscription_id,omitempty"`
	Amount         int64         `json:"amount"`
	Currency       string        `gorm:"size:3" json:"currency"`
	Method         string        `gorm:"size:50" json:"payment_method"`
	Status         PaymentStatus `gorm:"size:20;index" json:"payment_status"`
	TransactionID  string        `gorm:"size:100" json:"transaction_id,omitempty"`
	Description    string        `gorm:"size:512" json:"description,omitempty"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// SubscriptionStatistics are the counters on the plans dashboard.
type SubscriptionStatistics struct {
	TotalPlans        int64        `json:"total_plans"`
	ActivePlans       int64        `json:"active_plans"`
	ActiveSubscribers int64        `json:"active_subscribers"`
	Revenue           int64        `json:"revenue"`
	PopularPlan       *PlanSummary `json:"popular_plan"`
}

// PlanSummary names a plan and how many readers currently hold it.
type PlanSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Subscribers int64  `json:"subscribers"`
}
