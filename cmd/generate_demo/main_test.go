package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/database"
	"github.com/booklify/admin/internal/database/books"
	"github.com/booklify/admin/internal/database/subscriptions"
	"github.com/booklify/admin/internal/database/users"
	"github.com/booklify/admin/internal/entities"
)

func TestGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "demo.db")

	cmd := newCommand()
	cmd.SetArgs([]string{"--db", path})
	require.NoError(t, cmd.Execute())

	// A second run replaces the database instead of failing on duplicates.
	require.NoError(t, generate(path))

	db, err := database.NewDatabase(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	staff, err := users.NewRepository(db.DB).List(users.Filter{Roles: []entities.UserRole{entities.UserRoleAdmin, entities.UserRoleStaff}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), staff.Total)

	readers, err := users.NewRepository(db.DB).List(users.Filter{Roles: []entities.UserRole{entities.UserRoleUser}})
	require.NoError(t, err)
	assert.Equal(t, int64(len(demoReaders())), readers.Total)

	page, err := books.NewRepository(db.DB).ListBooks(books.BookFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(len(demoBooks())), page.Total)

	rejected := approval.StatusRejected
	page, err = books.NewRepository(db.DB).ListBooks(books.BookFilter{ApprovalStatus: &rejected})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total, "the resubmitted book is pending again")

	stats, err := subscriptions.NewRepository(db.DB).Statistics(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(len(demoPlans())), stats.TotalPlans)
	assert.Equal(t, int64(3), stats.ActiveSubscribers)
	assert.Equal(t, int64(125000+49000), stats.Revenue, "gifts are not paid")
	require.NotNil(t, stats.PopularPlan)
	assert.Equal(t, "Gói tháng", stats.PopularPlan.Name)
}

func TestGenerate_ParentIsAFile(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, os.WriteFile(parent, []byte("not a directory"), 0o600))

	assert.Error(t, generate(filepath.Join(parent, "demo.db")))
}
