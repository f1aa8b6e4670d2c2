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

// ApprovalController serves the approval workflow. The rules of package
// approval are enforced here regardless of what the client checked.
type ApprovalController struct {
	store        ApprovalStore
	auditService *audit.Service
	now          func() time.Time
}

func NewApprovalController(store ApprovalStore, auditService *audit.Service) *ApprovalController {
	return &ApprovalController{store: store, auditService: auditService, now: time.Now}
}

type manageStatusRequest struct {
	Status         *int             `json:"status"`
	ApprovalStatus *approval.Status `json:"approval_status"`
	ApprovalNote   *string          `json:"approval_note"`
	IsPremium      *bool            `json:"is_premium"`
}

// ManageStatus changes the approval status and the publication flags of a
// book in one transaction. A status change appends one line to the audit
// log; a note without a status change is recorded as a NOTE line.
// PUT /books/:id/manage-status
func (ac *ApprovalController) ManageStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req manageStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Status == nil && req.ApprovalStatus == nil && req.ApprovalNote == nil && req.IsPremium == nil {
		respondBadRequest(c, "nothing to update")
		return
	}
	if req.Status != nil && *req.Status != int(entities.BookStatusInactive) && *req.Status != int(entities.BookStatusActive) {
		respondBadRequest(c, "invalid status")
		return
	}
	if req.ApprovalStatus != nil && !req.ApprovalStatus.Valid() {
		respondBadRequest(c, approval.ErrUnknownStatus.Error())
		return
	}

	note := ""
	if req.ApprovalNote != nil {
		note = *req.ApprovalNote
	}
	var flags books.Flags
	if req.Status != nil {
		status := entities.BookStatus(*req.Status)
		flags.Status = &status
	}
	flags.IsPremium = req.IsPremium

	// Clients resend the current approval status with every flag change, so
	// an unchanged status is not a transition.
	var (
		from     approval.Status
		changing bool
	)
	book, err := ac.store.ManageStatus(id, func(cur approval.Status, log string) (approval.Status, string, error) {
		from = cur
		if req.ApprovalStatus != nil && *req.ApprovalStatus != cur {
			changing = true
			return approval.ChangeStatus(cur, log, *req.ApprovalStatus, note, ac.now())
		}
		if strings.TrimSpace(note) != "" {
			newLog, err := approval.AddNote(log, note, ac.now())
			return cur, newLog, err
		}
		return cur, log, nil
	}, flags)
	if changing && ac.auditService != nil && (err == nil || approval.IsValidationError(err)) {
		ac.auditService.LogStatusChange(actorFrom(c), id, from, *req.ApprovalStatus, note, err)
	}
	if err != nil {
		respondError(c, err, "manage status")
		return
	}

	respondOK(c, "Cập nhật trạng thái thành công", book)
}

type resubmitRequest struct {
	ResubmitNote *string `json:"resubmit_note"`
}

// Resubmit sends a rejected book back to review. Staff may only resubmit
// books they own.
// PUT /books/:id/resubmit
func (ac *ApprovalController) Resubmit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req resubmitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}
	note := ""
	if req.ResubmitNote != nil {
		note = *req.ResubmitNote
	}

	if !approval.CanResubmit(callerRoles(c)) {
		respondError(c, approval.ErrForbidden, "resubmit")
		return
	}
	current, err := ac.store.GetBookByID(id)
	if err != nil {
		respondError(c, err, "get book")
		return
	}
	if !isAdmin(c) && current.OwnerID != auth.GetUserID(c) {
		respondForbidden(c, "only the owner can resubmit this book")
		return
	}

	book, err := ac.store.ApplyApproval(id, func(cur approval.Status, log string) (approval.Status, string, error) {
		return approval.Resubmit(cur, log, note, ac.now())
	})
	if ac.auditService != nil && (err == nil || approval.IsValidationError(err)) {
		ac.auditService.LogResubmit(actorFrom(c), id, note, err)
	}
	if err != nil {
		respondError(c, err, "resubmit")
		return
	}

	respondOK(c, "Đã gửi lại sách để phê duyệt", book)
}

// ApprovalHistoryResponse is the decoded audit log of a book.
type ApprovalHistoryResponse struct {
	BookID         uint             `json:"book_id"`
	ApprovalStatus approval.Status  `json:"approval_status"`
	Timeline       []approval.Entry `json:"timeline"`
	Summary        approval.Summary `json:"summary"`
	Resubmitted    bool             `json:"resubmitted"`
}

// ApprovalHistory returns the timeline of a book, most recent first.
// GET /books/:id/approval-history
func (ac *ApprovalController) ApprovalHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := ac.store.GetBookByID(id)
	if err != nil {
		respondError(c, err, "get book")
		return
	}

	timeline := approval.ParseTimeline(book.ApprovalNote)
	if timeline == nil {
		timeline = []approval.Entry{}
	}
	respondOK(c, "", ApprovalHistoryResponse{
		BookID:         book.ID,
		ApprovalStatus: book.ApprovalStatus,
		Timeline:       timeline,
		Summary:        approval.Summarize(book.ApprovalNote),
		Resubmitted:    approval.HasPendingResubmission(book.ApprovalStatus, book.ApprovalNote),
	})
}
