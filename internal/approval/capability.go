package approval

import "strings"

// Role names as issued by the CMS.
const (
	RoleAdmin = "Admin"
	RoleStaff = "Staff"
)

// CanManageStatus reports whether any of roles may approve or reject books.
//
// Client-side checks only decide what to offer; the CMS is the authority.
func CanManageStatus(roles []string) bool {
	return hasRole(roles, RoleAdmin)
}

// CanResubmit reports whether any of roles may resubmit a rejected book.
func CanResubmit(roles []string) bool {
	return hasRole(roles, RoleStaff) || hasRole(roles, RoleAdmin)
}

// hasRole matches loosely, the way role strings such as "SuperAdmin" or
// "Admin,Staff" are checked elsewhere in the platform.
func hasRole(roles []string, want string) bool {
	want = strings.ToLower(want)
	for _, r := range roles {
		if strings.Contains(strings.ToLower(r), want) {
			return true
		}
	}
	return false
}
