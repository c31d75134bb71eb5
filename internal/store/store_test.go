// ABOUTME: Tests for SQLite store setup and admin session persistence
// ABOUTME: Covers schema creation, migrations, expiry and the session sweep

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestNewSQLiteStore_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "console.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, dbPath)
}

func TestNewSQLiteStore_Memory(t *testing.T) {
	store, err := NewSQLiteStore(MemoryPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.CreateAdminSession(ctx, &AdminSession{
		ID:        "mem-session",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	got, err := store.GetAdminSession(ctx, "mem-session")
	require.NoError(t, err)
	assert.Equal(t, "mem-session", got.ID)
}

func TestNewSQLiteStore_ReopenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "console.db")

	first, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.CreateAdminSession(context.Background(), &AdminSession{
		ID:        "persisted",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetAdminSession(context.Background(), "persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.ID)
}

func TestAdminSession_CreateGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	session := &AdminSession{
		ID:         "session-1",
		ExpiresAt:  time.Now().Add(time.Hour),
		UserAgent:  "test-agent",
		RemoteAddr: "127.0.0.1",
	}
	require.NoError(t, store.CreateAdminSession(ctx, session))
	assert.False(t, session.CreatedAt.IsZero())

	got, err := store.GetAdminSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "test-agent", got.UserAgent)
	assert.Equal(t, "127.0.0.1", got.RemoteAddr)
	assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)
	assert.False(t, got.LastSeenAt.IsZero())
}

func TestAdminSession_Expired(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAdminSession(ctx, &AdminSession{
		ID:        "old",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := store.GetAdminSession(ctx, "old")
	assert.ErrorIs(t, err, ErrAdminSessionNotFound)

	err = store.TouchAdminSession(ctx, "old")
	assert.ErrorIs(t, err, ErrAdminSessionNotFound)
}

func TestAdminSession_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetAdminSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAdminSessionNotFound)
}

func TestAdminSession_Touch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	past := time.Now().Add(-10 * time.Minute).UTC()
	require.NoError(t, store.CreateAdminSession(ctx, &AdminSession{
		ID:         "s",
		CreatedAt:  past,
		LastSeenAt: past,
		ExpiresAt:  time.Now().Add(time.Hour),
	}))

	require.NoError(t, store.TouchAdminSession(ctx, "s"))

	got, err := store.GetAdminSession(ctx, "s")
	require.NoError(t, err)
	assert.True(t, got.LastSeenAt.After(past))
}

func TestAdminSession_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAdminSession(ctx, &AdminSession{ID: "s", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.DeleteAdminSession(ctx, "s"))

	_, err := store.GetAdminSession(ctx, "s")
	assert.ErrorIs(t, err, ErrAdminSessionNotFound)

	// Deleting again is not an error.
	assert.NoError(t, store.DeleteAdminSession(ctx, "s"))
}

func TestAdminSession_DeleteExpired(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAdminSession(ctx, &AdminSession{ID: "live", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.CreateAdminSession(ctx, &AdminSession{ID: "dead-1", ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, store.CreateAdminSession(ctx, &AdminSession{ID: "dead-2", ExpiresAt: time.Now().Add(-time.Hour)}))

	n, err := store.DeleteExpiredAdminSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.GetAdminSession(ctx, "live")
	assert.NoError(t, err)
}
