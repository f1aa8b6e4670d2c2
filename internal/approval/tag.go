package approval

// Tag classifies one line of the audit log.
type Tag string

const (
	TagApproved    Tag = "APPROVED"
	TagRejected    Tag = "REJECTED"
	TagResubmitted Tag = "RESUBMITTED"
	TagPending     Tag = "PENDING"
	TagNote        Tag = "NOTE"

	// TagNone is reported by Summarize for an empty log.
	TagNone Tag = ""
)

// tagPriority is the order in which bracket tokens are searched for. When a
// line contains several tokens, the first tag in this list wins.
var tagPriority = []Tag{TagApproved, TagRejected, TagResubmitted, TagPending, TagNote}

// DefaultMessage is substituted when an entry carries no message.
func (t Tag) DefaultMessage() string {
	switch t {
	case TagApproved:
		return "Sách đã được phê duyệt"
	case TagRejected:
		return "Sách bị từ chối"
	case TagResubmitted:
		return "Đã được chỉnh sửa và gửi lại để phê duyệt"
	case TagPending:
		return "Chuyển về trạng thái chờ duyệt"
	case TagNote:
		return "Ghi chú"
	default:
		return ""
	}
}

// Valid reports whether t can be written to a log.
func (t Tag) Valid() bool {
	for _, known := range tagPriority {
		if t == known {
			return true
		}
	}
	return false
}

// Label is the short name used in history tables.
func (t Tag) Label() string {
	switch t {
	case TagApproved:
		return "Đã duyệt"
	case TagRejected:
		return "Từ chối"
	case TagResubmitted:
		return "Resubmit"
	case TagPending:
		return "Chờ duyệt"
	case TagNote:
		return "Ghi chú"
	default:
		return ""
	}
}

// TagFor maps a target status to the tag recorded for the transition.
func TagFor(s Status) Tag {
	switch s {
	case StatusApproved:
		return TagApproved
	case StatusRejected:
		return TagRejected
	case StatusPending:
		return TagPending
	default:
		return TagNote
	}
}
