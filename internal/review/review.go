// Package review runs approval actions from the console. Every action is
// checked locally first; a request that would fail validation is never sent.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/cmsclient"
)

// API is the part of the CMS client used by Service.
type API interface {
	GetBook(ctx context.Context, id uint) (*cmsclient.Book, error)
	ManageStatus(ctx context.Context, id uint, req cmsclient.ManageStatusRequest) error
	Resubmit(ctx context.Context, id uint, req cmsclient.ResubmitRequest) error
}

// History is a book with its decoded audit log.
type History struct {
	Book     *cmsclient.Book
	Timeline []approval.Entry
	Summary  approval.Summary

	// Resubmitted is set for a pending book that came back after a rejection.
	Resubmitted bool
}

// Service performs approval actions for one signed-in user.
type Service struct {
	api   API
	roles []string
}

// NewService creates a Service acting with the given roles.
func NewService(api API, roles []string) *Service {
	return &Service{api: api, roles: roles}
}

// History fetches a book and decodes its audit log, most recent first.
func (s *Service) History(ctx context.Context, id uint) (*History, error) {
	book, err := s.api.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	return &History{
		Book:        book,
		Timeline:    approval.ParseTimeline(book.ApprovalNote),
		Summary:     approval.Summarize(book.ApprovalNote),
		Resubmitted: approval.HasPendingResubmission(book.ApprovalStatus, book.ApprovalNote),
	}, nil
}

// ChangeStatus moves a book to status to. A rejection needs a non-blank
// note. The book is re-read after the change.
func (s *Service) ChangeStatus(ctx context.Context, id uint, to approval.Status, note string) (*cmsclient.Book, error) {
	if !approval.CanManageStatus(s.roles) {
		return nil, approval.ErrForbidden
	}
	// Catch a blank rejection before the first round trip.
	if to == approval.StatusRejected && strings.TrimSpace(note) == "" {
		return nil, approval.ErrMissingRejectionNote
	}

	book, err := s.api.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := approval.ValidateStatusChange(book.ApprovalStatus, to, note); err != nil {
		return nil, err
	}

	req := cmsclient.ManageStatusRequest{ApprovalStatus: &to}
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		req.ApprovalNote = &trimmed
	}
	if err := s.api.ManageStatus(ctx, id, req); err != nil {
		return nil, fmt.Errorf("change approval status of book %d: %w", id, err)
	}

	log.Info().Uint("book_id", id).Stringer("from", book.ApprovalStatus).Stringer("to", to).Msg("Approval status changed")
	return s.api.GetBook(ctx, id)
}

// Approve is ChangeStatus to Approved.
func (s *Service) Approve(ctx context.Context, id uint, note string) (*cmsclient.Book, error) {
	return s.ChangeStatus(ctx, id, approval.StatusApproved, note)
}

// Reject is ChangeStatus to Rejected.
func (s *Service) Reject(ctx context.Context, id uint, note string) (*cmsclient.Book, error) {
	return s.ChangeStatus(ctx, id, approval.StatusRejected, note)
}

// Resubmit sends a rejected book back to review.
func (s *Service) Resubmit(ctx context.Context, id uint, note string) (*cmsclient.Book, error) {
	if !approval.CanResubmit(s.roles) {
		return nil, approval.ErrForbidden
	}

	book, err := s.api.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := approval.ValidateResubmit(book.ApprovalStatus); err != nil {
		return nil, err
	}

	var req cmsclient.ResubmitRequest
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		req.ResubmitNote = &trimmed
	}
	if err := s.api.Resubmit(ctx, id, req); err != nil {
		return nil, fmt.Errorf("resubmit book %d: %w", id, err)
	}

	log.Info().Uint("book_id", id).Msg("Book resubmitted for approval")
	return s.api.GetBook(ctx, id)
}

// SetFlags changes the publication status and premium flag without touching
// the approval state. Nil leaves a flag unchanged.
func (s *Service) SetFlags(ctx context.Context, id uint, active, premium *bool) (*cmsclient.Book, error) {
	if !approval.CanManageStatus(s.roles) {
		return nil, approval.ErrForbidden
	}
	if active == nil && premium == nil {
		return s.api.GetBook(ctx, id)
	}

	req := cmsclient.ManageStatusRequest{IsPremium: premium}
	if active != nil {
		status := 0
		if *active {
			status = 1
		}
		req.Status = &status
	}
	if err := s.api.ManageStatus(ctx, id, req); err != nil {
		return nil, fmt.Errorf("update book %d: %w", id, err)
	}
	return s.api.GetBook(ctx, id)
}
