package entities

import (
	"time"

	"gorm.io/gorm"

	"github.com/booklify/admin/internal/approval"
)

type UserRole string

const (
	UserRoleAdmin UserRole = approval.RoleAdmin
	UserRoleStaff UserRole = approval.RoleStaff
	UserRoleUser  UserRole = "User"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleStaff, UserRoleUser:
		return true
	}
	return false
}

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string   `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string   `gorm:"size:255" json:"-"`
	Role         UserRole `gorm:"size:20;default:'Staff'" json:"role"`
	FullName     string   `gorm:"size:255" json:"full_name,omitempty"`
	Phone        string   `gorm:"size:20" json:"phone,omitempty"`
	// Disabled accounts cannot sign in. Stored inverted so the zero value is
	// an active account.
	Disabled bool `gorm:"index;default:false" json:"-"`

	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return !u.Disabled
}

// IsAdmin reports whether the user may manage approval status.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
