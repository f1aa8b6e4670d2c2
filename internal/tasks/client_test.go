package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booklify/admin/internal/config"
	"github.com/booklify/admin/internal/entities"
)

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "booklify-tasks.db"), TasksDBPath(filepath.Join("data", "booklify.db")))
	assert.Equal(t, "cms-tasks", TasksDBPath("cms"))
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = os.Stat(filepath.Join(tmpDir, "test-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestStopWithoutStart(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.Stop(context.Background()))
}

type fakeCleaner struct {
	mu        sync.Mutex
	retention time.Duration
	deleted   int64
	err       error
	actions   []string
	done      chan struct{}
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retention = retention
	return f.deleted, f.err
}

func (f *fakeCleaner) LogMaintenance(action, description string, err error) {
	f.mu.Lock()
	f.actions = append(f.actions, action)
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
}

type fakeRecorder struct {
	mu     sync.Mutex
	values map[string]string
}

func (f *fakeRecorder) SetSetting(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

func (f *fakeRecorder) get(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key]
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 4}
	recorder := &fakeRecorder{}

	err := CleanupAuditEventsProcessor(cleaner, recorder)(context.Background(), CleanupAuditEventsTask{RetentionDays: 7})
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cleaner.retention)
	assert.Equal(t, []string{"audit_cleanup"}, cleaner.actions)
	assert.Equal(t, "success", recorder.get(entities.SettingKeyAuditCleanupLastStatus))
	assert.Equal(t, "Deleted 4 audit events older than 7 days", recorder.get(entities.SettingKeyAuditCleanupLastMessage))
	_, err = time.Parse(time.RFC3339, recorder.get(entities.SettingKeyAuditCleanupLastAt))
	assert.NoError(t, err)
}

func TestCleanupAuditEventsProcessor_DefaultRetention(t *testing.T) {
	cleaner := &fakeCleaner{}

	require.NoError(t, CleanupAuditEventsProcessor(cleaner, nil)(context.Background(), CleanupAuditEventsTask{}))
	assert.Equal(t, DefaultRetentionDays*24*time.Hour, cleaner.retention)
}

func TestCleanupAuditEventsProcessor_Failure(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("database is locked")}
	recorder := &fakeRecorder{}

	err := CleanupAuditEventsProcessor(cleaner, recorder)(context.Background(), CleanupAuditEventsTask{RetentionDays: 30})
	require.Error(t, err)
	assert.Equal(t, "failed", recorder.get(entities.SettingKeyAuditCleanupLastStatus))
	assert.Contains(t, recorder.get(entities.SettingKeyAuditCleanupLastMessage), "database is locked")
}

func TestCleanupAuditEventsProcessor_NoCleaner(t *testing.T) {
	assert.Error(t, CleanupAuditEventsProcessor(nil, nil)(context.Background(), CleanupAuditEventsTask{}))
}

func TestCleanupAuditEventsQueue_RunsEnqueuedTask(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	cleaner := &fakeCleaner{deleted: 1, done: make(chan struct{}, 1)}
	client.Register(NewCleanupAuditEventsQueue(cleaner, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	ids, err := client.Add(CleanupAuditEventsTask{RetentionDays: 1}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	select {
	case <-cleaner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup task was not executed within timeout")
	}
}

func TestCleanupAuditEventsTaskConfig(t *testing.T) {
	cfg := CleanupAuditEventsTask{}.Config()

	assert.Equal(t, "cleanup_audit_events", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.NotNil(t, cfg.Retention)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.Tasks{Workers: 4, TaskTimeout: time.Minute})

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.TaskTimeout)
	assert.Equal(t, DefaultConfig().MaxRetries, cfg.MaxRetries)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
}

var _ backlite.Task = CleanupAuditEventsTask{}
