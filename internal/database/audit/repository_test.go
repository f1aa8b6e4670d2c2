package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/booklify/admin/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))
	return db
}

func bookEvent(userID uint, eventType entities.AuditEventType, action string, bookID uint, at time.Time) *entities.AuditEvent {
	return &entities.AuditEvent{
		UserID:     userID,
		EventType:  eventType,
		Action:     action,
		EntityType: "book",
		EntityID:   &bookID,
		Status:     entities.AuditStatusSuccess,
		CreatedAt:  at,
	}
}

func TestRepository_LogEvent_StampsCreatedAt(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	event := bookEvent(1, entities.AuditEventStatusChange, "book_approve", 7, time.Time{})
	require.NoError(t, repo.LogEvent(event))

	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_Find(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	// Staff 2 resubmits book 3 between two admin decisions; admin 1 also
	// approves book 4 and logs in.
	seed := []*entities.AuditEvent{
		bookEvent(1, entities.AuditEventStatusChange, "book_reject", 3, base),
		bookEvent(2, entities.AuditEventResubmit, "book_resubmit", 3, base.Add(time.Hour)),
		bookEvent(1, entities.AuditEventStatusChange, "book_approve", 3, base.Add(2*time.Hour)),
		bookEvent(1, entities.AuditEventStatusChange, "book_approve", 4, base.Add(3*time.Hour)),
		{UserID: 1, EventType: entities.AuditEventAuth, Action: "login", CreatedAt: base.Add(4 * time.Hour)},
	}
	for _, e := range seed {
		require.NoError(t, repo.LogEvent(e))
	}

	tests := []struct {
		name        string
		query       Query
		wantTotal   int64
		wantActions []string
	}{
		{
			name:        "all newest first",
			query:       Query{},
			wantTotal:   5,
			wantActions: []string{"login", "book_approve", "book_approve", "book_resubmit", "book_reject"},
		},
		{
			name:        "by user",
			query:       Query{UserID: 2},
			wantTotal:   1,
			wantActions: []string{"book_resubmit"},
		},
		{
			name:        "by type",
			query:       Query{EventType: entities.AuditEventStatusChange},
			wantTotal:   3,
			wantActions: []string{"book_approve", "book_approve", "book_reject"},
		},
		{
			name:        "by book",
			query:       Query{EntityType: "book", EntityID: 3},
			wantTotal:   3,
			wantActions: []string{"book_approve", "book_resubmit", "book_reject"},
		},
		{
			name:        "paged",
			query:       Query{Limit: 2, Offset: 1},
			wantTotal:   5,
			wantActions: []string{"book_approve", "book_approve"},
		},
		{
			name:        "negative offset is ignored",
			query:       Query{Limit: 1, Offset: -3},
			wantTotal:   5,
			wantActions: []string{"login"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, total, err := repo.Find(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)

			actions := make([]string, 0, len(events))
			for _, e := range events {
				actions = append(actions, e.Action)
			}
			assert.Equal(t, tt.wantActions, actions)
		})
	}
}

func TestRepository_GetEventsForBook(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	now := time.Now()

	require.NoError(t, repo.LogEvent(bookEvent(1, entities.AuditEventStatusChange, "book_reject", 3, now)))
	require.NoError(t, repo.LogEvent(bookEvent(1, entities.AuditEventStatusChange, "book_approve", 4, now)))

	events, total, err := repo.GetEventsForBook(3, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, uint(3), *events[0].EntityID)
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	now := time.Now()

	require.NoError(t, repo.LogEvent(bookEvent(1, entities.AuditEventStatusChange, "old_reject", 1, now.Add(-48*time.Hour))))
	require.NoError(t, repo.LogEvent(bookEvent(1, entities.AuditEventStatusChange, "new_approve", 1, now.Add(-time.Hour))))

	deleted, err := repo.DeleteOldEvents(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := repo.Find(Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "new_approve", events[0].Action)
}
