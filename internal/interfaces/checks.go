package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/booklify/admin/internal/audit"
	"github.com/booklify/admin/internal/cmsclient"
	"github.com/booklify/admin/internal/database/books"
	"github.com/booklify/admin/internal/database/categories"
	"github.com/booklify/admin/internal/database/settings"
	"github.com/booklify/admin/internal/database/subscriptions"
	"github.com/booklify/admin/internal/database/users"
	"github.com/booklify/admin/internal/http"
	"github.com/booklify/admin/internal/review"
	"github.com/booklify/admin/internal/scheduler"
	"github.com/booklify/admin/internal/tasks"
	"github.com/booklify/admin/internal/tokens"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.ApprovalStore = (*books.Repository)(nil)
var _ http.DeleteStore = (*books.Repository)(nil)
var _ http.CategoryStore = (*categories.Repository)(nil)
var _ http.CategoryGetter = (*categories.Repository)(nil)
var _ http.PlanStore = (*subscriptions.Repository)(nil)
var _ http.SubscriptionStore = (*subscriptions.Repository)(nil)
var _ http.AccountStore = (*users.Repository)(nil)

// =============================================================================
// Console
// =============================================================================

// The CMS client refreshes tokens for the manager that it also consumes.
var _ tokens.Refresher = (*cmsclient.Client)(nil)

var _ review.API = (*cmsclient.Client)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.StatusRecorder = (*settings.Repository)(nil)

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.SettingsStore = (*settings.Repository)(nil)
var _ http.NextRunReporter = (*scheduler.Scheduler)(nil)
