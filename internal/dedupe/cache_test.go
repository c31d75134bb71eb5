// ABOUTME: Tests for the form token cache used to reject duplicate submissions.
// ABOUTME: Validates issue/consume semantics, TTL expiration, eviction, cleanup, and concurrency safety.

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Issue_UniqueTokens(t *testing.T) {
	cache := New(5*time.Minute, 100)
	defer cache.Close()

	a := cache.Issue()
	b := cache.Issue()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, cache.Len())
	assert.NoError(t, cache.Consume(a))
	assert.NoError(t, cache.Consume(b))
}

func TestCache_Consume_Once(t *testing.T) {
	cache := New(5*time.Minute, 100)
	defer cache.Close()

	token := cache.Issue()

	require.NoError(t, cache.Consume(token))
	assert.ErrorIs(t, cache.Consume(token), ErrTokenReused)
	assert.ErrorIs(t, cache.Consume(token), ErrTokenReused)
}

func TestCache_Consume_Unknown(t *testing.T) {
	cache := New(5*time.Minute, 100)
	defer cache.Close()

	assert.ErrorIs(t, cache.Consume("never-issued"), ErrUnknownToken)
	assert.ErrorIs(t, cache.Consume(""), ErrUnknownToken)
}

func TestCache_Consume_Expired(t *testing.T) {
	// Use a very short TTL for testing
	cache := New(10*time.Millisecond, 100)
	defer cache.Close()

	token := cache.Issue()

	// Wait for TTL to expire
	time.Sleep(20 * time.Millisecond)

	assert.ErrorIs(t, cache.Consume(token), ErrUnknownToken)
}

func TestCache_Eviction(t *testing.T) {
	// Small cache for testing eviction
	cache := New(5*time.Minute, 3)
	defer cache.Close()

	first := cache.Issue()
	second := cache.Issue()
	third := cache.Issue()

	// A fourth token evicts the oldest
	fourth := cache.Issue()

	assert.Equal(t, 3, cache.Len())
	assert.ErrorIs(t, cache.Consume(first), ErrUnknownToken, "oldest token should be evicted")
	assert.NoError(t, cache.Consume(second))
	assert.NoError(t, cache.Consume(third))
	assert.NoError(t, cache.Consume(fourth))
}

func TestCache_ConsumeMovesTokenToBack(t *testing.T) {
	cache := New(5*time.Minute, 3)
	defer cache.Close()

	first := cache.Issue()
	second := cache.Issue()
	_ = cache.Issue()

	// Consuming refreshes first, so second becomes the oldest.
	require.NoError(t, cache.Consume(first))
	_ = cache.Issue()

	assert.ErrorIs(t, cache.Consume(first), ErrTokenReused)
	assert.ErrorIs(t, cache.Consume(second), ErrUnknownToken)
}

func TestCache_Cleanup(t *testing.T) {
	// Cleanup runs every minute by default, so trigger it manually
	cache := New(10*time.Millisecond, 100)
	defer cache.Close()

	cache.Issue()
	cache.Issue()
	cache.Issue()
	assert.Equal(t, 3, cache.Len())

	time.Sleep(20 * time.Millisecond)
	cache.runCleanup()

	assert.Equal(t, 0, cache.Len(), "cleanup should remove expired entries from map")
	assert.Equal(t, 0, cache.order.Len())
}

func TestCache_Consume_Atomic(t *testing.T) {
	cache := New(5*time.Minute, 100)
	defer cache.Close()

	token := cache.Issue()

	const numGoroutines = 100
	var wins atomic.Int32
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// All goroutines race to submit the same form
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			if cache.Consume(token) == nil {
				wins.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(),
		"exactly one submission should win the race")
}

func TestCache_Close(t *testing.T) {
	cache := New(5*time.Minute, 100)

	cache.Issue()
	assert.Equal(t, 1, cache.Len())

	// Close should not panic and should stop the cleanup goroutine
	cache.Close()

	// Multiple closes should not panic
	cache.Close()
}
