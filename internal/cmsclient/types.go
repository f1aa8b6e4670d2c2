package cmsclient

import (
	"encoding/json"
	"time"

	"github.com/booklify/admin/internal/approval"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

type envelope struct {
	Result  string          `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Book is a book as returned by the CMS. ApprovalNote is the raw audit log.
type Book struct {
	ID             uint            `json:"id"`
	Title          string          `json:"title"`
	Author         string          `json:"author"`
	Description    string          `json:"description,omitempty"`
	ISBN           string          `json:"isbn,omitempty"`
	Publisher      string          `json:"publisher,omitempty"`
	CategoryID     uint            `json:"category_id"`
	OwnerID        uint            `json:"owner_id"`
	ApprovalStatus approval.Status `json:"approval_status"`
	ApprovalNote   string          `json:"approval_note"`
	Status         int             `json:"status"`
	IsPremium      bool            `json:"is_premium"`
	PageCount      int             `json:"page_count"`
	TotalViews     int             `json:"total_views"`
	AverageRating  float64         `json:"average_rating"`
	TotalRatings   int             `json:"total_ratings"`
	CreatedAt      time.Time       `json:"created_at"`
	ModifiedAt     time.Time       `json:"modified_at"`
}

// BookList is one page of the book list.
type BookList struct {
	Items      []Book `json:"items"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

// ListOptions filters GET /books/list. Zero values are not sent.
type ListOptions struct {
	Search         string
	CategoryID     uint
	ApprovalStatus *approval.Status
	Status         *int
	IsPremium      *bool
	SortBy         string
	Descending     bool
	Page           int
	PageSize       int
}

// Statistics are the approval dashboard counters.
type Statistics struct {
	PendingCount  int64 `json:"pending_count"`
	ApprovedCount int64 `json:"approved_count"`
	RejectedCount int64 `json:"rejected_count"`
	TotalCount    int64 `json:"total_count"`
	ActiveCount   int64 `json:"active_count"`
	InactiveCount int64 `json:"inactive_count"`
	PremiumCount  int64 `json:"premium_count"`
	FreeCount     int64 `json:"free_count"`
}

// ManageStatusRequest is the body of PUT /books/{id}/manage-status. Nil
// fields are left out so the server keeps their current value.
type ManageStatusRequest struct {
	Status         *int             `json:"status,omitempty"`
	ApprovalStatus *approval.Status `json:"approval_status,omitempty"`
	ApprovalNote   *string          `json:"approval_note,omitempty"`
	IsPremium      *bool            `json:"is_premium,omitempty"`
}

// ResubmitRequest is the body of PUT /books/{id}/resubmit.
type ResubmitRequest struct {
	ResubmitNote *string `json:"resubmit_note,omitempty"`
}

// ApprovalHistory is the server-parsed view of a book's audit log.
type ApprovalHistory struct {
	BookID         uint             `json:"book_id"`
	ApprovalStatus approval.Status  `json:"approval_status"`
	Timeline       []approval.Entry `json:"timeline"`
	Summary        approval.Summary `json:"summary"`
}

// Category is a book category.
type Category struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// LoginResult is the data of a successful login or refresh.
type LoginResult struct {
	AccessToken    string    `json:"access_token"`
	TokenExpiresIn int64     `json:"token_expires_in"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	AppRole        []string  `json:"app_role"`
	IsActive       bool      `json:"is_active"`
}

type loginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Plan is a premium subscription plan. Price is in VND.
type Plan struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        int64     `json:"price"`
	Duration     int       `json:"duration"`
	Features     []string  `json:"features"`
	IsPopular    bool      `json:"is_popular"`
	DisplayOrder int       `json:"display_order"`
	Status       int       `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// PlanList is one page of the plan list.
type PlanList struct {
	Items      []Plan `json:"items"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

// PlanListOptions filters GET /subscriptions. Zero values are not sent.
type PlanListOptions struct {
	Search    string
	Status    *int
	IsPopular *bool
	Page      int
	PageSize  int
}

// PlanStatistics are the plans dashboard counters.
type PlanStatistics struct {
	TotalPlans        int64 `json:"total_plans"`
	ActivePlans       int64 `json:"active_plans"`
	ActiveSubscribers int64 `json:"active_subscribers"`
	Revenue           int64 `json:"revenue"`
	PopularPlan       *struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Subscribers int64  `json:"subscribers"`
	} `json:"popular_plan"`
}

// Account is a reader or staff account.
type Account struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AccountList is one page of readers or staff.
type AccountList struct {
	Items      []Account `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// AccountListOptions filters GET /users and GET /staff. Subscribed only
// applies to readers and Role only to staff.
type AccountListOptions struct {
	Search     string
	IsActive   *bool
	Subscribed *bool
	Role       string
	Page       int
	PageSize   int
}

// Subscription is one period of a reader's plan.
type Subscription struct {
	ID        uint      `json:"id"`
	PlanID    uint      `json:"plan_id"`
	Plan      Plan      `json:"plan"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	AutoRenew bool      `json:"auto_renew"`
	IsGift    bool      `json:"is_gift"`
}

// Payment is one payment by a reader.
type Payment struct {
	ID            uint       `json:"id"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Method        string     `json:"payment_method"`
	Status        string     `json:"payment_status"`
	TransactionID string     `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Reader is a reader account with its subscription and payment history.
type Reader struct {
	Account
	CurrentSubscription *Subscription  `json:"current_subscription"`
	SubscriptionHistory []Subscription `json:"subscription_history"`
	PaymentHistory      []Payment      `json:"payment_history"`
}

// ManageSubscriptionRequest is the body of
// POST /users/{id}/subscription/manage.
type ManageSubscriptionRequest struct {
	Action        string `json:"action"`
	PlanID        uint   `json:"plan_id,omitempty"`
	DurationDays  int    `json:"duration_days,omitempty"`
	Amount        *int64 `json:"payment_amount,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// StaffUpdate is the body of PATCH /staff/{id}. Nil fields are left out.
type StaffUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
