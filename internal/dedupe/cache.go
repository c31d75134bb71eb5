// ABOUTME: Thread-safe TTL cache of one-time form tokens.
// ABOUTME: Used by the web console to reject a second submission of the same form.

package dedupe

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Token errors
var (
	ErrUnknownToken = errors.New("form token unknown or expired")
	ErrTokenReused  = errors.New("form token already used")
)

type tokenState int

const (
	stateIssued tokenState = iota
	stateConsumed
)

// cacheEntry stores the timestamp, state and list element for a token.
type cacheEntry struct {
	timestamp time.Time
	state     tokenState
	element   *list.Element
}

// Cache tracks issued form tokens and whether they have been consumed.
// It is TTL-bounded and size-limited; the oldest tokens are evicted first.
// Uses a doubly-linked list to maintain insertion order for O(1) eviction.
type Cache struct {
	mu      sync.RWMutex
	tokens  map[string]*cacheEntry
	order   *list.List // List of tokens in insertion order (oldest at front)
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a new token cache with the specified TTL and maximum size.
// A background goroutine periodically cleans up expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		tokens:  make(map[string]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Issue creates and records a new unguessable token.
func (c *Cache) Issue() string {
	token := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.markLocked(token, stateIssued)
	return token
}

// Consume atomically claims an issued token. The first call succeeds; any
// later call with the same token returns ErrTokenReused. Tokens that were
// never issued, or have expired or been evicted, return ErrUnknownToken.
func (c *Cache) Consume(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.tokens[token]
	if !ok || time.Since(entry.timestamp) >= c.ttl {
		return ErrUnknownToken
	}
	if entry.state == stateConsumed {
		return ErrTokenReused
	}

	c.markLocked(token, stateConsumed)
	return nil
}

// Len reports how many tokens are tracked, including expired ones not yet
// cleaned up.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens)
}

// markLocked records a token in the given state. Must be called with mu held.
func (c *Cache) markLocked(token string, state tokenState) {
	now := time.Now()

	// If token already exists, update it and move to back
	if entry, exists := c.tokens[token]; exists {
		entry.timestamp = now
		entry.state = state
		c.order.MoveToBack(entry.element)
		return
	}

	// Evict oldest if at capacity
	if len(c.tokens) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(token)
	c.tokens[token] = &cacheEntry{
		timestamp: now,
		state:     state,
		element:   elem,
	}
}

// evictOldest removes the oldest entry from the cache.
// Must be called with mu held. O(1) operation using linked list.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	token, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.tokens, token)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries from the cache.
func (c *Cache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for token, entry := range c.tokens {
		if now.Sub(entry.timestamp) > c.ttl {
			c.order.Remove(entry.element)
			delete(c.tokens, token)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
