package http

import (
	"time"

	"github.com/booklify/admin/internal/database/books"
	"github.com/booklify/admin/internal/database/subscriptions"
	"github.com/booklify/admin/internal/database/users"
	"github.com/booklify/admin/internal/entities"
)

// Each controller depends on the narrowest store it needs.

// BookGetter provides read access to books.
type BookGetter interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// BookStore is what BooksController needs.
type BookStore interface {
	BookGetter
	ListBooks(filter books.BookFilter) (*books.Page, error)
	CreateBook(book *entities.Book) error
	UpdateBook(id uint, updates map[string]any) (*entities.Book, error)
	GetStatistics() (*entities.BookStatistics, error)
}

// ApprovalStore is what ApprovalController needs.
type ApprovalStore interface {
	BookGetter
	ApplyApproval(id uint, fn books.ApprovalFunc) (*entities.Book, error)
	ManageStatus(id uint, fn books.ApprovalFunc, flags books.Flags) (*entities.Book, error)
}

// DeleteStore is what DeleteController needs.
type DeleteStore interface {
	BookGetter
	DeleteBook(id uint) error
}

// CategoryStore is what CategoriesController needs.
type CategoryStore interface {
	Create(name, description string) (*entities.Category, error)
	List(activeOnly bool) ([]entities.Category, error)
	GetByID(id uint) (*entities.Category, error)
	Update(id uint, name, description *string, isActive *bool) (*entities.Category, error)
	Delete(id uint) error
}

// PlanStore is what PlansController needs.
type PlanStore interface {
	CreatePlan(in subscriptions.PlanInput) (*entities.SubscriptionPlan, error)
	UpdatePlan(id uint, in subscriptions.PlanInput) (*entities.SubscriptionPlan, error)
	GetPlan(id uint) (*entities.SubscriptionPlan, error)
	ListPlans(filter subscriptions.PlanFilter) (*subscriptions.PlanPage, error)
	DeletePlan(id uint, now time.Time) error
	Statistics(now time.Time) (*entities.SubscriptionStatistics, error)
}

// SubscriptionStore is the per-reader side of the subscriptions repository.
type SubscriptionStore interface {
	CurrentSubscription(userID uint, now time.Time) (*entities.UserSubscription, error)
	Subscriptions(userID uint) ([]entities.UserSubscription, error)
	Payments(userID uint) ([]entities.Payment, error)
	Manage(userID uint, req subscriptions.ManageRequest, now time.Time) (*entities.UserSubscription, error)
}

// AccountStore is what AccountsController needs.
type AccountStore interface {
	GetUserByID(id uint) (*entities.User, error)
	List(filter users.Filter) (*users.Page, error)
	UpdateProfile(id uint, p users.Profile) (*entities.User, error)
	SetActive(id uint, active bool) (*entities.User, error)
	EmailTaken(email string, exceptID uint) (bool, error)
}
