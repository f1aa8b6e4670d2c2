package cmsclient

import (
	"errors"
	"fmt"
)

// ErrAuthExpired means the CMS no longer accepts the session. The caller has
// to log in again.
var ErrAuthExpired = errors.New("session expired, please log in again")

// APIError carries a failure reported by the CMS. Message is the server's
// text, unmodified.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("CMS error: HTTP %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status of err when it is an *APIError, and 0
// otherwise.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
