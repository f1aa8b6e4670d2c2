package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/audit"
	"github.com/booklify/admin/internal/auth"
	"github.com/booklify/admin/internal/database/books"
	"github.com/booklify/admin/internal/entities"
)

// CategoryGetter provides read access to categories.
type CategoryGetter interface {
	GetByID(id uint) (*entities.Category, error)
}

type BooksController struct {
	store        BookStore
	categories   CategoryGetter
	auditService *audit.Service
}

func NewBooksController(store BookStore, categories CategoryGetter, auditService *audit.Service) *BooksController {
	return &BooksController{store: store, categories: categories, auditService: auditService}
}

type bookListResponse struct {
	Items      []entities.Book `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// ListBooks returns one page of books.
// GET /books/list
func (bc *BooksController) ListBooks(c *gin.Context) {
	filter, ok := parseBookFilter(c)
	if !ok {
		return
	}

	page, err := bc.store.ListBooks(filter)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	items := page.Items
	if items == nil {
		items = []entities.Book{}
	}
	respondOK(c, "", bookListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(),
	})
}

func parseBookFilter(c *gin.Context) (books.BookFilter, bool) {
	filter := books.BookFilter{
		Search: c.Query("search"),
		SortBy: c.Query("sort_by"),
	}

	var ok bool
	if filter.CategoryID, ok = queryUint(c, "category_id"); !ok {
		return filter, false
	}
	if filter.OwnerID, ok = queryUint(c, "owner_id"); !ok {
		return filter, false
	}
	if v := c.Query("approval_status"); v != "" {
		s, err := approval.ParseStatus(v)
		if err != nil {
			respondBadRequest(c, "invalid approval_status")
			return filter, false
		}
		filter.ApprovalStatus = &s
	}
	if v := c.Query("status"); v != "" {
		switch v {
		case "0", "1":
			s := entities.BookStatus(v[0] - '0')
			filter.Status = &s
		default:
			respondBadRequest(c, "invalid status")
			return filter, false
		}
	}
	if filter.IsPremium, ok = queryBool(c, "is_premium"); !ok {
		return filter, false
	}
	if filter.Ascending, ok = querySortDirection(c, "desc"); !ok {
		return filter, false
	}
	if filter.Page, ok = queryInt(c, "page", 1); !ok {
		return filter, false
	}
	if filter.PageSize, ok = queryInt(c, "page_size", books.DefaultPageSize); !ok {
		return filter, false
	}
	return filter, true
}

// GetStatistics returns the approval dashboard counters.
// GET /books/statistics
func (bc *BooksController) GetStatistics(c *gin.Context) {
	stats, err := bc.store.GetStatistics()
	if err != nil {
		respondInternalError(c, err, "book statistics")
		return
	}
	respondOK(c, "", stats)
}

// GetBook returns one book including its raw approval note.
// GET /books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBookByID(id)
	if err != nil {
		respondError(c, err, "get book")
		return
	}
	respondOK(c, "", book)
}

type createBookRequest struct {
	Title         string     `json:"title" binding:"required"`
	Author        string     `json:"author" binding:"required"`
	Description   string     `json:"description"`
	ISBN          string     `json:"isbn"`
	Publisher     string     `json:"publisher"`
	Tags          string     `json:"tags"`
	CoverImageURL string     `json:"cover_image_url"`
	FilePath      string     `json:"file_path"`
	PageCount     int        `json:"page_count" binding:"gte=0"`
	PublishedDate *time.Time `json:"published_date"`
	CategoryID    uint       `json:"category_id"`
	IsPremium     bool       `json:"is_premium"`
}

// CreateBook uploads a new book. It starts pending with an empty audit log
// and is owned by the caller.
// POST /books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and author are required")
		return
	}
	req.Title, req.Author = strings.TrimSpace(req.Title), strings.TrimSpace(req.Author)
	if req.Title == "" || req.Author == "" {
		respondBadRequest(c, "title and author are required")
		return
	}
	if !bc.categoryExists(c, req.CategoryID) {
		return
	}

	book := &entities.Book{
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		ISBN:          strings.TrimSpace(req.ISBN),
		Publisher:     req.Publisher,
		Tags:          req.Tags,
		CoverImageURL: req.CoverImageURL,
		FilePath:      req.FilePath,
		PageCount:     req.PageCount,
		PublishedDate: req.PublishedDate,
		CategoryID:    req.CategoryID,
		OwnerID:       auth.GetUserID(c),
		IsPremium:     req.IsPremium,
		Status:        entities.BookStatusInactive,
	}
	if err := bc.store.CreateBook(book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	if bc.auditService != nil {
		bc.auditService.LogBookCreate(actorFrom(c), book.ID, book.Title)
	}
	respondCreated(c, "Tạo sách thành công", book)
}

type updateBookRequest struct {
	Title         *string    `json:"title"`
	Author        *string    `json:"author"`
	Description   *string    `json:"description"`
	ISBN          *string    `json:"isbn"`
	Publisher     *string    `json:"publisher"`
	Tags          *string    `json:"tags"`
	CoverImageURL *string    `json:"cover_image_url"`
	FilePath      *string    `json:"file_path"`
	PageCount     *int       `json:"page_count"`
	PublishedDate *time.Time `json:"published_date"`
	CategoryID    *uint      `json:"category_id"`
}

func (r updateBookRequest) updates() (map[string]any, string) {
	u := map[string]any{}
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if t == "" {
			return nil, "title must not be empty"
		}
		u["title"] = t
	}
	if r.Author != nil {
		a := strings.TrimSpace(*r.Author)
		if a == "" {
			return nil, "author must not be empty"
		}
		u["author"] = a
	}
	if r.PageCount != nil {
		if *r.PageCount < 0 {
			return nil, "page_count must not be negative"
		}
		u["page_count"] = *r.PageCount
	}
	setString := func(col string, v *string) {
		if v != nil {
			u[col] = *v
		}
	}
	setString("description", r.Description)
	setString("isbn", r.ISBN)
	setString("publisher", r.Publisher)
	setString("tags", r.Tags)
	setString("cover_image_url", r.CoverImageURL)
	setString("file_path", r.FilePath)
	if r.PublishedDate != nil {
		u["published_date"] = *r.PublishedDate
	}
	if r.CategoryID != nil {
		u["category_id"] = *r.CategoryID
	}
	return u, ""
}

// UpdateBook edits approval-neutral fields. Staff may only edit their own
// books. Approval fields in the body are ignored.
// PATCH /books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	updates, problem := req.updates()
	if problem != "" {
		respondBadRequest(c, problem)
		return
	}
	if req.CategoryID != nil && !bc.categoryExists(c, *req.CategoryID) {
		return
	}

	book, err := bc.store.GetBookByID(id)
	if err != nil {
		respondError(c, err, "get book")
		return
	}
	if !isAdmin(c) && book.OwnerID != auth.GetUserID(c) {
		respondForbidden(c, "only the owner can edit this book")
		return
	}

	book, err = bc.store.UpdateBook(id, updates)
	if err != nil {
		respondError(c, err, "update book")
		return
	}
	respondOK(c, "Cập nhật thành công", book)
}

func (bc *BooksController) categoryExists(c *gin.Context, id uint) bool {
	if id == 0 || bc.categories == nil {
		return true
	}
	if _, err := bc.categories.GetByID(id); err != nil {
		respondError(c, err, "get category")
		return false
	}
	return true
}
