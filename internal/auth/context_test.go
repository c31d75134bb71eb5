// ABOUTME: Unit tests for session context functions
// ABOUTME: Tests context propagation helpers

package auth

import (
	"context"
	"testing"
)

func TestWithSession_RoundTrip(t *testing.T) {
	s := &SessionContext{SessionID: "sess-1"}
	ctx := WithSession(context.Background(), s)

	got := FromContext(ctx)
	if got != s {
		t.Fatalf("FromContext() = %v, want %v", got, s)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext() = %v, want nil", got)
	}
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), sessionContextKey{}, "not a session")
	if got := FromContext(ctx); got != nil {
		t.Errorf("FromContext() = %v, want nil", got)
	}
}

func TestMustFromContext_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustFromContext() should panic without a session")
		}
	}()
	MustFromContext(context.Background())
}
