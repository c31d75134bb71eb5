// ABOUTME: Store interfaces and data types for bot-console persistence
// ABOUTME: Defines admin sessions and the audit log of console actions

package store

import (
	"context"
	"errors"
	"time"
)

// ErrAdminSessionNotFound is returned when a session doesn't exist or is expired.
var ErrAdminSessionNotFound = errors.New("admin session not found")

// AdminSession represents an authenticated admin browser session.
type AdminSession struct {
	ID         string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastSeenAt time.Time
	UserAgent  string
	RemoteAddr string
}

// SessionStore persists admin sessions.
type SessionStore interface {
	CreateAdminSession(ctx context.Context, session *AdminSession) error
	GetAdminSession(ctx context.Context, id string) (*AdminSession, error)
	TouchAdminSession(ctx context.Context, id string) error
	DeleteAdminSession(ctx context.Context, id string) error
	DeleteExpiredAdminSessions(ctx context.Context) (int64, error)
}

// AuditStore persists the console audit log.
type AuditStore interface {
	AppendAuditLog(ctx context.Context, e *AuditEntry) error
	ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

// Store is everything the console persists.
type Store interface {
	SessionStore
	AuditStore
	Close() error
}
