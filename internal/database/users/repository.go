// Package users provides database operations for CMS accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByLogin("admin")
package users

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/booklify/admin/internal/entities"
)

var ErrUserNotFound = errors.New("user not found")

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var sortColumns = map[string]string{
	"username":      "username",
	"email":         "email",
	"full_name":     "full_name",
	"created_at":    "created_at",
	"last_login_at": "last_login_at",
}

// Filter narrows down List. Nil pointers mean "any".
type Filter struct {
	Roles    []entities.UserRole
	Search   string
	IsActive *bool
	// HasActiveSubscription keeps readers with a current subscription.
	HasActiveSubscription *bool
	SortBy                string
	Ascending             bool
	Page                  int // 1-based
	PageSize              int
	Now                   time.Time
}

// Page is one page of users.
type Page struct {
	Items    []entities.User
	Total    int64
	Page     int
	PageSize int
}

// TotalPages returns the number of pages for the current page size.
func (p Page) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// Profile holds the editable account fields. Nil fields are left unchanged.
type Profile struct {
	FullName *string
	Phone    *string
	Email    *string
	Role     *entities.UserRole
	IsActive *bool
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser stores a fully populated user.
func (r *Repository) CreateUser(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	return r.first(&user, r.db.Where("id = ?", id))
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	return r.first(&user, r.db.Where("username = ?", username))
}

// GetUserByLogin retrieves a user by username or email.
func (r *Repository) GetUserByLogin(login string) (*entities.User, error) {
	var user entities.User
	return r.first(&user, r.db.Where("username = ? OR email = ?", login, login))
}

// Exists reports whether a username or email is already registered.
func (r *Repository) Exists(username, email string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error
	return count > 0, err
}

// Count returns the number of users.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// List returns one page of users matching filter.
func (r *Repository) List(filter Filter) (*Page, error) {
	query := r.db.Model(&entities.User{})

	if len(filter.Roles) > 0 {
		query = query.Where("role IN ?", filter.Roles)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		query = query.Where("LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR LOWER(full_name) LIKE LOWER(?) OR phone LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if filter.IsActive != nil {
		query = query.Where("disabled = ?", !*filter.IsActive)
	}
	if filter.HasActiveSubscription != nil {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		now = now.UTC()
		current := r.db.Model(&entities.UserSubscription{}).
			Select("user_id").
			Where("is_active = ? AND start_date <= ? AND end_date > ?", true, now, now)
		if *filter.HasActiveSubscription {
			query = query.Where("id IN (?)", current)
		} else {
			query = query.Where("id NOT IN (?)", current)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}

	var items []entities.User
	err := query.Order(column + " " + direction).
		Order("id " + direction).
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &Page{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// UpdateProfile applies the set fields of p and returns the stored user.
func (r *Repository) UpdateProfile(id uint, p Profile) (*entities.User, error) {
	user, err := r.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if p.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*p.FullName)
	}
	if p.Phone != nil {
		updates["phone"] = strings.TrimSpace(*p.Phone)
	}
	if p.Email != nil {
		updates["email"] = strings.TrimSpace(*p.Email)
	}
	if p.Role != nil {
		updates["role"] = *p.Role
	}
	if p.IsActive != nil {
		updates["disabled"] = !*p.IsActive
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := r.db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetUserByID(id)
}

// SetActive enables or disables sign-in for a user.
func (r *Repository) SetActive(id uint, active bool) (*entities.User, error) {
	return r.UpdateProfile(id, Profile{IsActive: &active})
}

// EmailTaken reports whether another user already has email.
func (r *Repository) EmailTaken(email string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&count).Error
	return count > 0, err
}

// RecordFailedLogin stores the new failure count and optional lock.
func (r *Repository) RecordFailedLogin(id uint, failedCount int, lockedUntil *time.Time) error {
	updates := map[string]any{"failed_login_count": failedCount}
	if lockedUntil != nil {
		updates["locked_until"] = *lockedUntil
	}
	return r.db.Model(&entities.User{}).Where("id = ?", id).Updates(updates).Error
}

// RecordSuccessfulLogin resets the failure counters and stamps the login time.
func (r *Repository) RecordSuccessfulLogin(id uint, at time.Time) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).Updates(map[string]any{
		"last_login_at":      at,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
}

func (r *Repository) first(user *entities.User, query *gorm.DB) (*entities.User, error) {
	if err := query.First(user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
