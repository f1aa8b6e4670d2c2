package approval

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the approval state of a book. The numeric values are part of the
// CMS wire format.
type Status int

const (
	StatusPending  Status = 0
	StatusApproved Status = 1
	StatusRejected Status = 2
)

// AllStatuses lists every approval status in wire order.
var AllStatuses = []Status{StatusPending, StatusApproved, StatusRejected}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	default:
		return "Unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Label returns the label shown to staff in the console.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Chờ duyệt"
	case StatusApproved:
		return "Đã duyệt"
	case StatusRejected:
		return "Từ chối"
	default:
		return "Không xác định"
	}
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusRejected
}

// ParseStatus accepts either the numeric wire value or the English name
// (case-insensitive).
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		s := Status(n)
		if !s.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrUnknownStatus, n)
		}
		return s, nil
	}
	for _, s := range AllStatuses {
		if strings.EqualFold(v, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, v)
}
