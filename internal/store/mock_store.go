// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	sessions map[string]*AdminSession
	audit    []AuditEntry
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions: make(map[string]*AdminSession),
	}
}

// CreateAdminSession stores a new session.
func (m *MockStore) CreateAdminSession(ctx context.Context, session *AdminSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if session.LastSeenAt.IsZero() {
		session.LastSeenAt = session.CreatedAt
	}

	// Make a copy to avoid external modification
	s := *session
	m.sessions[s.ID] = &s
	return nil
}

// GetAdminSession retrieves a non-expired session.
func (m *MockStore) GetAdminSession(ctx context.Context, id string) (*AdminSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, ErrAdminSessionNotFound
	}

	result := *s
	return &result, nil
}

// TouchAdminSession updates LastSeenAt.
func (m *MockStore) TouchAdminSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return ErrAdminSessionNotFound
	}
	s.LastSeenAt = time.Now().UTC()
	return nil
}

// DeleteAdminSession removes a session.
func (m *MockStore) DeleteAdminSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// DeleteExpiredAdminSessions removes expired sessions.
func (m *MockStore) DeleteExpiredAdminSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var n int64
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// AppendAuditLog records an entry.
func (m *MockStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prepareAuditEntry(e)
	m.audit = append(m.audit, *e)
	return nil
}

// ListAuditLog returns matching entries newest first.
func (m *MockStore) ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := []AuditEntry{}
	// Walk backwards so equal timestamps keep newest-first insertion order.
	for i := len(m.audit) - 1; i >= 0; i-- {
		e := m.audit[i]
		if f.Action != nil && e.Action != *f.Action {
			continue
		}
		if f.TargetUser != nil && e.TargetUser != *f.TargetUser {
			continue
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit := normalizeAuditLimit(f.Limit); len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Close is a no-op.
func (m *MockStore) Close() error { return nil }

// Compile-time interface checks.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MockStore)(nil)
)
