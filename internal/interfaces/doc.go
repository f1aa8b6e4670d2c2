// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore, ApprovalStore, DeleteStore: book persistence per controller (internal/http/stores.go)
//   - CategoryStore, CategoryGetter: categories (internal/http/stores.go, internal/http/books.go)
//
// All of them are satisfied by the gorm repositories under internal/database/.
//
// ## Console Interfaces
//
//   - tokens.Refresher: exchanges the current access token for a new one (internal/tokens/token.go)
//   - review.API: the CMS calls the approval console makes (internal/review/review.go)
//
// cmsclient.Client implements both.
//
// ## Background Task Interfaces
//
//   - tasks.AuditEventCleaner: retention cleanup plus its maintenance record (internal/tasks/cleanup_audit.go)
//   - tasks.StatusRecorder: last cleanup outcome in the settings table
//
// # Adding a New Approval Action
//
// Status rules live in one place, internal/approval:
//
//  1. Add the transition or tag in approval/transition.go and approval/tag.go.
//
//  2. Apply it on the server through books.Repository.ApplyApproval so the
//     read-modify-write of the audit log happens in one transaction:
//
//     book, err := store.ApplyApproval(id, func(cur approval.Status, log string) (approval.Status, string, error) {
//         return approval.ChangeStatus(cur, log, target, note, time.Now())
//     })
//
//  3. Validate it in the console through review.Service before any request is
//     sent, then call the matching cmsclient method.
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Declare the narrow store interface next to the controller that uses it.
//
//  4. Add compile-time check in checks.go:
//
//     var _ http.SomeStore = (*domain.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
