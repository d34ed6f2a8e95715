package service

import (
	"sync"
	"time"

	"github.com/campushq/attendance-api/internal/models"
)

// SessionCache memoizes the "currently active session" lookup so the hot
// check-in path avoids a storage round-trip per request. It holds a single
// snapshot slot shared across all request workers; reads and writes swap the
// whole value under a mutex so a reader never observes a torn view.
//
// The slot also remembers a negative lookup ("no active session") to avoid
// hammering storage on repeated misses. Staleness is bounded by the TTL and
// by Invalidate, which session lifecycle operations must call; a cache hit
// is never a correctness source, only a bounded-staleness optimization.
type SessionCache struct {
	mu        sync.Mutex
	view      *models.ActiveSessionView
	fetchedAt time.Time
	ttl       time.Duration

	now func() time.Time
}

// NewSessionCache builds a cache with the given TTL (default 300s).
func NewSessionCache(ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &SessionCache{ttl: ttl, now: time.Now}
}

// Get returns the cached snapshot. found is false when the slot is empty or
// expired; found with a nil view means a cached negative lookup.
func (c *SessionCache) Get() (view *models.ActiveSessionView, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetchedAt.IsZero() || c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.view, true
}

// Put stores a fresh snapshot. A nil view records a negative lookup.
func (c *SessionCache) Put(view *models.ActiveSessionView) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view = view
	c.fetchedAt = c.now()
}

// Invalidate clears the slot unconditionally. Session lifecycle operations
// (create, end, sweep) call this so the next resolve reads storage.
func (c *SessionCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view = nil
	c.fetchedAt = time.Time{}
}
