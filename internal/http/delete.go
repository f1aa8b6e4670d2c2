package http

import (
	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/audit"
)

type DeleteController struct {
	store        DeleteStore
	auditService *audit.Service
}

func NewDeleteController(store DeleteStore, auditService *audit.Service) *DeleteController {
	return &DeleteController{store: store, auditService: auditService}
}

// DeleteBook performs a soft delete on a book.
// DELETE /books/:id
func (dc *DeleteController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Title for the audit trail
	book, err := dc.store.GetBookByID(id)
	if err != nil {
		respondError(c, err, "get book")
		return
	}

	if err := dc.store.DeleteBook(id); err != nil {
		respondError(c, err, "delete book")
		return
	}

	if dc.auditService != nil {
		dc.auditService.LogDelete(actorFrom(c), "book", id, book.Title)
	}

	respondOK(c, "Đã xoá sách", gin.H{"id": id})
}
