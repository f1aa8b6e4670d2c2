// Package books provides database operations for book management and the
// approval workflow.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	page, err := repo.ListBooks(books.BookFilter{Search: "tô hoài", PageSize: 20})
//	book, err := repo.ApplyApproval(id, func(cur approval.Status, log string) (approval.Status, string, error) {
//		return approval.ChangeStatus(cur, log, approval.StatusApproved, "", time.Now())
//	})
package books

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/entities"
)

var (
	ErrBookNotFound = errors.New("book not found")
	// ErrLogRewritten is returned when an approval update would modify
	// existing audit log content instead of appending to it.
	ErrLogRewritten = errors.New("approval log can only be appended to")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// sortColumns maps the accepted sort keys to columns.
var sortColumns = map[string]string{
	"title":           "title",
	"author":          "author",
	"created_at":      "created_at",
	"modified_at":     "updated_at",
	"total_views":     "total_views",
	"average_rating":  "average_rating",
	"approval_status": "approval_status",
}

// BookFilter narrows down ListBooks. Nil pointers mean "any".
type BookFilter struct {
	Search         string
	CategoryID     uint
	OwnerID        uint
	ApprovalStatus *approval.Status
	Status         *entities.BookStatus
	IsPremium      *bool
	SortBy         string
	Ascending      bool
	Page           int // 1-based
	PageSize       int
}

// Page is one page of books.
type Page struct {
	Items    []entities.Book `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// TotalPages returns the number of pages for the current page size.
func (p Page) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// ApprovalFunc computes the new approval state from the stored one.
type ApprovalFunc func(current approval.Status, log string) (approval.Status, string, error)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookByID retrieves a book with its category.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Category").First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// ListBooks returns one page of books matching filter.
func (r *Repository) ListBooks(filter BookFilter) (*Page, error) {
	query := r.db.Model(&entities.Book{})

	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?) OR isbn LIKE ?", pattern, pattern, pattern)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filter.ApprovalStatus)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsPremium != nil {
		query = query.Where("is_premium = ?", *filter.IsPremium)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}

	page, size := normalizePaging(filter.Page, filter.PageSize)

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}

	var books []entities.Book
	err := query.Preload("Category").
		Order(column + " " + direction).
		Order("id " + direction).
		Limit(size).
		Offset((page - 1) * size).
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	return &Page{Items: books, Total: total, Page: page, PageSize: size}, nil
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

// CreateBook stores a new book. New books always start pending with an
// empty audit log regardless of what the caller set.
func (r *Repository) CreateBook(book *entities.Book) error {
	book.ID = 0
	book.ApprovalStatus = approval.StatusPending
	book.ApprovalNote = ""
	if err := r.db.Omit("Category", "Owner").Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// UpdateBook applies approval-neutral field changes. Keys naming
// approval_status or approval_note are ignored; use ApplyApproval.
func (r *Repository) UpdateBook(id uint, updates map[string]any) (*entities.Book, error) {
	clean := make(map[string]any, len(updates))
	for k, v := range updates {
		if k == "approval_status" || k == "approval_note" || k == "id" {
			continue
		}
		clean[k] = v
	}

	book, err := r.GetBookByID(id)
	if err != nil {
		return nil, err
	}
	if len(clean) == 0 {
		return book, nil
	}
	if err := r.db.Model(book).Omit("Category", "Owner").Updates(clean).Error; err != nil {
		return nil, fmt.Errorf("failed to update book %d: %w", id, err)
	}
	return r.GetBookByID(id)
}

// Flags are the publication switches set together with an approval
// change. Nil fields are left unchanged.
type Flags struct {
	Status    *entities.BookStatus
	IsPremium *bool
}

func (f Flags) updates() map[string]any {
	u := map[string]any{}
	if f.Status != nil {
		u["status"] = *f.Status
	}
	if f.IsPremium != nil {
		u["is_premium"] = *f.IsPremium
	}
	return u
}

// ApplyApproval runs fn against the stored approval state inside a
// transaction and persists its result. fn errors abort without changes.
func (r *Repository) ApplyApproval(id uint, fn ApprovalFunc) (*entities.Book, error) {
	return r.ManageStatus(id, fn, Flags{})
}

// ManageStatus applies fn and flags in one transaction. A nil fn leaves the
// approval state untouched. Any error rolls back both.
func (r *Repository) ManageStatus(id uint, fn ApprovalFunc, flags Flags) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		updates := flags.updates()
		if fn != nil {
			status, log, err := fn(book.ApprovalStatus, book.ApprovalNote)
			if err != nil {
				return err
			}
			if !strings.HasPrefix(log, book.ApprovalNote) {
				return ErrLogRewritten
			}
			if status != book.ApprovalStatus || log != book.ApprovalNote {
				updates["approval_status"] = status
				updates["approval_note"] = log
			}
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&book).Omit("Category", "Owner").Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update book %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetBookByID(id)
}

// DeleteBook soft-deletes a book.
func (r *Repository) DeleteBook(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// GetStatistics counts books by approval status, publication status and
// premium flag.
func (r *Repository) GetStatistics() (*entities.BookStatistics, error) {
	type row struct {
		ApprovalStatus approval.Status
		Status         entities.BookStatus
		IsPremium      bool
		N              int64
	}
	var rows []row
	err := r.db.Model(&entities.Book{}).
		Select("approval_status, status, is_premium, COUNT(*) AS n").
		Group("approval_status, status, is_premium").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	stats := &entities.BookStatistics{}
	for _, rw := range rows {
		stats.TotalCount += rw.N
		switch rw.ApprovalStatus {
		case approval.StatusPending:
			stats.PendingCount += rw.N
		case approval.StatusApproved:
			stats.ApprovedCount += rw.N
		case approval.StatusRejected:
			stats.RejectedCount += rw.N
		}
		if rw.Status == entities.BookStatusActive {
			stats.ActiveCount += rw.N
		} else {
			stats.InactiveCount += rw.N
		}
		if rw.IsPremium {
			stats.PremiumCount += rw.N
		} else {
			stats.FreeCount += rw.N
		}
	}
	return stats, nil
}
