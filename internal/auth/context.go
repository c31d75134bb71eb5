// ABOUTME: Session context for tracking the admin session through request handlers
// ABOUTME: Provides WithSession/FromContext for propagating it via context

package auth

import (
	"context"
	"time"
)

// SessionContext identifies the authenticated admin browser session.
type SessionContext struct {
	SessionID string
	ExpiresAt time.Time
}

// sessionContextKey is the key type for storing SessionContext in context.Context.
type sessionContextKey struct{}

// WithSession returns a new context with the SessionContext attached.
func WithSession(ctx context.Context, s *SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext retrieves the SessionContext from the context, returning nil if not present.
func FromContext(ctx context.Context) *SessionContext {
	val := ctx.Value(sessionContextKey{})
	if val == nil {
		return nil
	}
	s, ok := val.(*SessionContext)
	if !ok {
		return nil
	}
	return s
}

// MustFromContext retrieves the SessionContext from the context, panicking if not present.
func MustFromContext(ctx context.Context) *SessionContext {
	s := FromContext(ctx)
	if s == nil {
		panic("auth: SessionContext not found in context")
	}
	return s
}
