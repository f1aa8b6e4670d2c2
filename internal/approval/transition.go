package approval

import (
	"strings"
	"time"
)

// legalTransitions is the complete set of status changes an approver may
// make. Nothing leads back to Pending; that path belongs to Resubmit.
var legalTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRejected},
	StatusRejected: {StatusApproved},
}

// CanTransition reports whether an approver may move a book from one status
// to another.
func CanTransition(from, to Status) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTargets lists the statuses an approver may choose for a book that is
// currently in from.
func AllowedTargets(from Status) []Status {
	return append([]Status(nil), legalTransitions[from]...)
}

// ValidateStatusChange checks a requested status change. A missing rejection
// note is reported before legality so the caller can re-prompt.
func ValidateStatusChange(from, to Status, note string) error {
	if !from.Valid() || !to.Valid() {
		return ErrUnknownStatus
	}
	if to == StatusRejected && strings.TrimSpace(note) == "" {
		return ErrMissingRejectionNote
	}
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// ValidateResubmit checks that a book can go back to review.
func ValidateResubmit(current Status) error {
	if current != StatusRejected {
		return ErrIllegalResubmit
	}
	return nil
}

// ChangeStatus applies an approver's decision. On success it returns the new
// status and the log with exactly one line appended. On failure log is
// returned unchanged.
func ChangeStatus(from Status, log string, to Status, note string, now time.Time) (Status, string, error) {
	if err := ValidateStatusChange(from, to, note); err != nil {
		return from, log, err
	}
	return to, AppendEntry(log, TagFor(to), note, now), nil
}

// Resubmit sends a rejected book back to review.
func Resubmit(current Status, log string, note string, now time.Time) (Status, string, error) {
	if err := ValidateResubmit(current); err != nil {
		return current, log, err
	}
	return StatusPending, AppendEntry(log, TagResubmitted, note, now), nil
}

// AddNote records an administrative note without touching the status.
func AddNote(log string, note string, now time.Time) (string, error) {
	if strings.TrimSpace(note) == "" {
		return log, ErrEmptyNote
	}
	return AppendEntry(log, TagNote, note, now), nil
}
