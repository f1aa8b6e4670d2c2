// Package database provides the data access layer of the CMS.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, category seeding
//	├── books/           # Books, filtering, approval updates, statistics
//	├── categories/      # Book categories
//	├── users/           # Staff and admin accounts
//	└── audit/           # Structured audit events
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./booklify.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	book, err := booksRepo.GetBookByID(123)
//
// Approval changes go through books.Repository.ApplyApproval, which runs the
// read-modify-write of approval_status and approval_note in one transaction
// so the audit log is only ever appended to.
package database
