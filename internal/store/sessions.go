// ABOUTME: Admin session store methods backing the console login cookie
// ABOUTME: Sessions expire server-side and are swept periodically

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateAdminSession creates a new admin session.
func (s *SQLiteStore) CreateAdminSession(ctx context.Context, session *AdminSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if session.LastSeenAt.IsZero() {
		session.LastSeenAt = session.CreatedAt
	}

	query := `
		INSERT INTO admin_sessions (id, created_at, expires_at, last_seen_at, user_agent, remote_addr)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.ExpiresAt.UTC().Format(time.RFC3339),
		session.LastSeenAt.UTC().Format(time.RFC3339),
		session.UserAgent,
		session.RemoteAddr,
	)
	if err != nil {
		return fmt.Errorf("inserting admin session: %w", err)
	}

	s.logger.Debug("created admin session", "id", session.ID)
	return nil
}

// GetAdminSession retrieves a valid (non-expired) admin session.
func (s *SQLiteStore) GetAdminSession(ctx context.Context, id string) (*AdminSession, error) {
	query := `
		SELECT id, created_at, expires_at, last_seen_at, user_agent, remote_addr
		FROM admin_sessions
		WHERE id = ? AND expires_at > ?
	`

	var session AdminSession
	var createdAtStr, expiresAtStr, lastSeenStr string
	now := time.Now().UTC().Format(time.RFC3339)

	err := s.db.QueryRowContext(ctx, query, id, now).Scan(
		&session.ID,
		&createdAtStr,
		&expiresAtStr,
		&lastSeenStr,
		&session.UserAgent,
		&session.RemoteAddr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying admin session: %w", err)
	}

	session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	if lastSeenStr != "" {
		session.LastSeenAt, err = time.Parse(time.RFC3339, lastSeenStr)
		if err != nil {
			return nil, fmt.Errorf("parsing last_seen_at: %w", err)
		}
	}

	return &session, nil
}

// TouchAdminSession records activity on a live session.
func (s *SQLiteStore) TouchAdminSession(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		"UPDATE admin_sessions SET last_seen_at = ? WHERE id = ? AND expires_at > ?",
		now, id, now,
	)
	if err != nil {
		return fmt.Errorf("touching admin session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAdminSessionNotFound
	}
	return nil
}

// DeleteAdminSession deletes an admin session.
func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM admin_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting admin session: %w", err)
	}
	return nil
}

// DeleteExpiredAdminSessions removes all expired sessions and reports how
// many were removed.
func (s *SQLiteStore) DeleteExpiredAdminSessions(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, "DELETE FROM admin_sessions WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("deleted expired admin sessions", "count", rowsAffected)
	}
	return rowsAffected, nil
}
