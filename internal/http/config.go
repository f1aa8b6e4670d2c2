package http

import (
	"github.com/booklify/admin/internal/audit"
	"github.com/booklify/admin/internal/auth"
	"github.com/booklify/admin/internal/database"
	"github.com/booklify/admin/internal/database/books"
	"github.com/booklify/admin/internal/database/categories"
	"github.com/booklify/admin/internal/database/subscriptions"
	"github.com/booklify/admin/internal/database/users"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database   *database.Database
	Books      *books.Repository
	Categories *categories.Repository
	// Users and Subscriptions back the reader, staff and plan routes.
	Users         *users.Repository
	Subscriptions *subscriptions.Repository

	// Audit is optional; without it no audit events are recorded.
	Audit *audit.Service

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	RateLimiter    *auth.RateLimiter

	// Maintenance routes are registered when Settings and Audit are set.
	// TaskQueue and Schedule stay nil when the queue or schedule is off.
	Settings           SettingsStore
	TaskQueue          TaskQueue
	Schedule           NextRunReporter
	AuditRetentionDays int

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string

	// Application info
	Version string
}
