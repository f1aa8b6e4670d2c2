package approval

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRejectionNote is returned when a book is rejected without a
	// reason. Callers must re-prompt; the request never reaches the server.
	ErrMissingRejectionNote = errors.New("a note is required when rejecting a book")

	// ErrIllegalResubmit is returned when a book that is not rejected is
	// resubmitted.
	ErrIllegalResubmit = errors.New("only rejected books can be resubmitted")

	// ErrIllegalTransition is returned for status changes outside the allowed
	// set. Use errors.As with *TransitionError for the details.
	ErrIllegalTransition = errors.New("illegal approval status transition")

	ErrUnknownStatus = errors.New("unknown approval status")
	ErrEmptyNote     = errors.New("note must not be empty")
	ErrForbidden     = errors.New("insufficient permissions for this approval action")
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change approval status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// IsValidationError reports whether err is one of the local validation
// failures that must be surfaced to the user instead of being sent on.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingRejectionNote) ||
		errors.Is(err, ErrIllegalResubmit) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrEmptyNote)
}
