package entities

import (
	"time"

	"gorm.io/gorm"

	"github.com/booklify/admin/internal/approval"
)

// BookStatus is the publication switch of a book. It is independent from the
// approval status.
type BookStatus int

const (
	BookStatusInactive BookStatus = 0
	BookStatusActive   BookStatus = 1
)

func (s BookStatus) String() string {
	if s == BookStatusActive {
		return "Active"
	}
	return "Inactive"
}

type Book struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"index;size:512" json:"title"`
	Author        string     `gorm:"index;size:256" json:"author"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	ISBN          string     `gorm:"index;size:20" json:"isbn,omitempty"`
	Publisher     string     `gorm:"size:256" json:"publisher,omitempty"`
	Tags          string     `gorm:"size:512" json:"tags,omitempty"` // comma separated
	CoverImageURL string     `gorm:"size:2048" json:"cover_image_url,omitempty"`
	FilePath      string     `gorm:"size:1024" json:"file_path,omitempty"`
	PageCount     int        `json:"page_count"`
	PublishedDate *time.Time `json:"published_date,omitempty"`

	CategoryID uint     `gorm:"index" json:"category_id"`
	Category   Category `gorm:"foreignKey:CategoryID" json:"-"`

	// OwnerID is the staff member who uploaded the book. Only the owner (or an
	// admin) may resubmit it.
	OwnerID uint `gorm:"index" json:"owner_id"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"-"`

	ApprovalStatus approval.Status `gorm:"index;default:0" json:"approval_status"`
	// ApprovalNote is the append-only audit trail, see package approval.
	ApprovalNote string     `gorm:"type:text" json:"approval_note"`
	Status       BookStatus `gorm:"index;default:0" json:"status"`
	IsPremium    bool       `gorm:"default:false" json:"is_premium"`

	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
	TotalViews    int     `json:"total_views"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"modified_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// BookStatistics mirrors the counters shown on the approval dashboard.
type BookStatistics struct {
	PendingCount  int64 `json:"pending_count"`
	ApprovedCount int64 `json:"approved_count"`
	RejectedCount int64 `json:"rejected_count"`
	TotalCount    int64 `json:"total_count"`
	ActiveCount   int64 `json:"active_count"`
	InactiveCount int64 `json:"inactive_count"`
	PremiumCount  int64 `json:"premium_count"`
	FreeCount     int64 `json:"free_count"`
}
