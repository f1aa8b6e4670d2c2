package http

import (
	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/audit"
	"github.com/booklify/admin/internal/auth"
	"github.com/booklify/admin/internal/entities"
)

// actorFrom describes the authenticated caller for audit events.
func actorFrom(c *gin.Context) audit.Actor {
	return audit.Actor{
		UserID:    auth.GetUserID(c),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// callerRoles returns the caller's roles in the form used by the approval
// capability checks.
func callerRoles(c *gin.Context) []string {
	return auth.RoleNames(auth.GetUserRole(c))
}

func isAdmin(c *gin.Context) bool {
	return auth.GetUserRole(c) == entities.UserRoleAdmin
}
