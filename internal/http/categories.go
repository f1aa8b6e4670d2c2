package http

import (
	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/audit"
	"github.com/booklify/admin/internal/entities"
)

type CategoriesController struct {
	store        CategoryStore
	auditService *audit.Service
}

func NewCategoriesController(store CategoryStore, auditService *audit.Service) *CategoriesController {
	return &CategoriesController{store: store, auditService: auditService}
}

// ListCategories returns all categories, or only active ones with
// ?active_only=true.
// GET /book-categories
func (cc *CategoriesController) ListCategories(c *gin.Context) {
	activeOnly, ok := queryBool(c, "active_only")
	if !ok {
		return
	}

	cats, err := cc.store.List(activeOnly != nil && *activeOnly)
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	if cats == nil {
		cats = []entities.Category{}
	}
	respondOK(c, "", cats)
}

// CreateCategory creates a new category.
// POST /book-categories
func (cc *CategoriesController) CreateCategory(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	category, err := cc.store.Create(req.Name, req.Description)
	if err != nil {
		respondError(c, err, "create category")
		return
	}
	respondCreated(c, "Tạo danh mục thành công", category)
}

// UpdateCategory renames, describes or (de)activates a category.
// PUT /book-categories/:id
func (cc *CategoriesController) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	category, err := cc.store.Update(id, req.Name, req.Description, req.IsActive)
	if err != nil {
		respondError(c, err, "update category")
		return
	}
	respondOK(c, "Cập nhật danh mục thành công", category)
}

// DeleteCategory removes a category that no book uses.
// DELETE /book-categories/:id
func (cc *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := cc.store.GetByID(id)
	if err != nil {
		respondError(c, err, "get category")
		return
	}
	if err := cc.store.Delete(id); err != nil {
		respondError(c, err, "delete category")
		return
	}

	if cc.auditService != nil {
		cc.auditService.LogDelete(actorFrom(c), "category", id, category.Name)
	}
	respondOK(c, "Đã xoá danh mục", gin.H{"id": id})
}
