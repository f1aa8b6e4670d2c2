package books

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Category{}, &entities.Book{}))
	require.NoError(t, db.Create(&entities.Category{Name: "Văn học", IsActive: true}).Error)
	return db
}

func newBook(title string) *entities.Book {
	return &entities.Book{Title: title, Author: "Nguyễn Nhật Ánh", CategoryID: 1, OwnerID: 2}
}

func TestRepository_CreateBook_StartsPending(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	book := newBook("Mắt biếc")
	book.ApprovalStatus = approval.StatusApproved
	book.ApprovalNote = "[APPROVED 2024-01-01 00:00:00 UTC] forged"
	require.NoError(t, repo.CreateBook(book))

	loaded, err := repo.GetBookByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, loaded.ApprovalStatus)
	assert.Empty(t, loaded.ApprovalNote)
	assert.Equal(t, "Văn học", loaded.Category.Name)
}

func TestRepository_GetBookByID_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	_, err := repo.GetBookByID(42)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_ListBooks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	for i := 0; i < 25; i++ {
		require.NoError(t, repo.CreateBook(newBook(fmt.Sprintf("Book %02d", i))))
	}
	special := newBook("Cho tôi xin một vé đi tuổi thơ")
	special.IsPremium = true
	require.NoError(t, repo.CreateBook(special))
	_, err := repo.ApplyApproval(special.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.ChangeStatus(cur, log, approval.StatusApproved, "", time.Now())
	})
	require.NoError(t, err)

	t.Run("default paging", func(t *testing.T) {
		page, err := repo.ListBooks(BookFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(26), page.Total)
		assert.Len(t, page.Items, DefaultPageSize)
		assert.Equal(t, 2, page.TotalPages())
	})

	t.Run("second page", func(t *testing.T) {
		page, err := repo.ListBooks(BookFilter{Page: 2, PageSize: 20})
		require.NoError(t, err)
		assert.Len(t, page.Items, 6)
	})

	t.Run("search", func(t *testing.T) {
		// SQLite only folds ASCII case.
		page, err := repo.ListBooks(BookFilter{Search: "  XIN "})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("approval filter", func(t *testing.T) {
		approved := approval.StatusApproved
		page, err := repo.ListBooks(BookFilter{ApprovalStatus: &approved})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, special.ID, page.Items[0].ID)
	})

	t.Run("premium filter", func(t *testing.T) {
		premium := false
		page, err := repo.ListBooks(BookFilter{IsPremium: &premium})
		require.NoError(t, err)
		assert.Equal(t, int64(25), page.Total)
	})

	t.Run("sort by title ascending", func(t *testing.T) {
		page, err := repo.ListBooks(BookFilter{SortBy: "title", Ascending: true, PageSize: 3})
		require.NoError(t, err)
		assert.Equal(t, "Book 00", page.Items[0].Title)
		assert.Equal(t, "Book 01", page.Items[1].Title)
	})

	t.Run("unknown sort key falls back", func(t *testing.T) {
		_, err := repo.ListBooks(BookFilter{SortBy: "title; DROP TABLE books"})
		require.NoError(t, err)
	})

	t.Run("page size capped", func(t *testing.T) {
		page, err := repo.ListBooks(BookFilter{PageSize: 1000})
		require.NoError(t, err)
		assert.Equal(t, MaxPageSize, page.PageSize)
	})
}

func TestRepository_UpdateBook_IgnoresApprovalFields(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	book := newBook("Tôi thấy hoa vàng trên cỏ xanh")
	require.NoError(t, repo.CreateBook(book))

	updated, err := repo.UpdateBook(book.ID, map[string]any{
		"title":           "Hoa vàng",
		"is_premium":      true,
		"approval_status": approval.StatusApproved,
		"approval_note":   "rewritten",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hoa vàng", updated.Title)
	assert.True(t, updated.IsPremium)
	assert.Equal(t, approval.StatusPending, updated.ApprovalStatus)
	assert.Empty(t, updated.ApprovalNote)

	_, err = repo.UpdateBook(999, map[string]any{"title": "x"})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_ApplyApproval(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	book := newBook("Cánh đồng bất tận")
	require.NoError(t, repo.CreateBook(book))

	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	rejected, err := repo.ApplyApproval(book.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.ChangeStatus(cur, log, approval.StatusRejected, "Thiếu bìa", t0)
	})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, rejected.ApprovalStatus)
	assert.Equal(t, "[REJECTED 2024-03-01 09:00:00 UTC] Thiếu bìa", rejected.ApprovalNote)

	resubmitted, err := repo.ApplyApproval(book.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.Resubmit(cur, log, "Đã thêm bìa", t0.Add(time.Hour))
	})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, resubmitted.ApprovalStatus)
	assert.True(t, strings.HasPrefix(resubmitted.ApprovalNote, rejected.ApprovalNote))
	assert.Len(t, approval.Decode(resubmitted.ApprovalNote), 2)
}

func TestRepository_ApplyApproval_ErrorLeavesBookUntouched(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	book := newBook("Nỗi buồn chiến tranh")
	require.NoError(t, repo.CreateBook(book))

	_, err := repo.ApplyApproval(book.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.ChangeStatus(cur, log, approval.StatusRejected, "  ", time.Now())
	})
	assert.ErrorIs(t, err, approval.ErrMissingRejectionNote)

	loaded, err := repo.GetBookByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, loaded.ApprovalStatus)
	assert.Empty(t, loaded.ApprovalNote)
}

func TestRepository_ManageStatus_AppliesApprovalAndFlagsTogether(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	book := newBook("Tuổi thơ dữ dội")
	require.NoError(t, repo.CreateBook(book))

	premium, active := true, entities.BookStatusActive
	saved, err := repo.ManageStatus(book.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.ChangeStatus(cur, log, approval.StatusApproved, "", time.Now())
	}, Flags{Status: &active, IsPremium: &premium})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, saved.ApprovalStatus)
	assert.Equal(t, entities.BookStatusActive, saved.Status)
	assert.True(t, saved.IsPremium)

	premium = false
	saved, err = repo.ManageStatus(book.ID, nil, Flags{IsPremium: &premium})
	require.NoError(t, err)
	assert.False(t, saved.IsPremium)
	assert.Equal(t, approval.StatusApproved, saved.ApprovalStatus)
	assert.Len(t, approval.Decode(saved.ApprovalNote), 1)
}

func TestRepository_ManageStatus_RollsBackTogether(t *testing.T) {
	t.Run("refused transition keeps flags", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		book := newBook("Bỉ vỏ")
		require.NoError(t, repo.CreateBook(book))

		premium := true
		_, err := repo.ManageStatus(book.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
			return approval.ChangeStatus(cur, log, approval.StatusRejected, "", time.Now())
		}, Flags{IsPremium: &premium})
		assert.ErrorIs(t, err, approval.ErrMissingRejectionNote)

		loaded, err := repo.GetBookByID(book.ID)
		require.NoError(t, err)
		assert.False(t, loaded.IsPremium)
	})

	t.Run("failed write keeps approval", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRepository(db)
		book := newBook("Giông tố")
		require.NoError(t, repo.CreateBook(book))

		require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
			_ = tx.AddError(errors.New("disk full"))
		}))

		premium := true
		_, err := repo.ManageStatus(book.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
			return approval.ChangeStatus(cur, log, approval.StatusApproved, "", time.Now())
		}, Flags{IsPremium: &premium})
		require.Error(t, err)

		loaded, err := repo.GetBookByID(book.ID)
		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, loaded.ApprovalStatus)
		assert.Empty(t, loaded.ApprovalNote)
		assert.False(t, loaded.IsPremium)
	})
}

func TestRepository_ApplyApproval_RefusesRewrite(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	book := newBook("Số đỏ")
	require.NoError(t, repo.CreateBook(book))
	_, err := repo.ApplyApproval(book.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.ChangeStatus(cur, log, approval.StatusApproved, "", time.Now())
	})
	require.NoError(t, err)

	_, err = repo.ApplyApproval(book.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.StatusRejected, "[REJECTED] replaced", nil
	})
	assert.ErrorIs(t, err, ErrLogRewritten)

	_, err = repo.ApplyApproval(999, func(cur approval.Status, log string) (approval.Status, string, error) {
		return cur, log, errors.New("never called")
	})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_DeleteBook(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	book := newBook("Vợ nhặt")
	require.NoError(t, repo.CreateBook(book))

	require.NoError(t, repo.DeleteBook(book.ID))
	_, err := repo.GetBookByID(book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.ErrorIs(t, repo.DeleteBook(book.ID), ErrBookNotFound)
}

func TestRepository_GetStatistics(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateBook(newBook(fmt.Sprintf("P%d", i))))
	}
	approvedBook := newBook("A")
	approvedBook.IsPremium = true
	approvedBook.Status = entities.BookStatusActive
	require.NoError(t, repo.CreateBook(approvedBook))
	_, err := repo.ApplyApproval(approvedBook.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.ChangeStatus(cur, log, approval.StatusApproved, "", time.Now())
	})
	require.NoError(t, err)
	rejectedBook := newBook("R")
	require.NoError(t, repo.CreateBook(rejectedBook))
	_, err = repo.ApplyApproval(rejectedBook.ID, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.ChangeStatus(cur, log, approval.StatusRejected, "no", time.Now())
	})
	require.NoError(t, err)

	stats, err := repo.GetStatistics()
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalCount)
	assert.Equal(t, int64(3), stats.PendingCount)
	assert.Equal(t, int64(1), stats.ApprovedCount)
	assert.Equal(t, int64(1), stats.RejectedCount)
	assert.Equal(t, int64(1), stats.ActiveCount)
	assert.Equal(t, int64(4), stats.InactiveCount)
	assert.Equal(t, int64(1), stats.PremiumCount)
	assert.Equal(t, int64(4), stats.FreeCount)
}
