package cache

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// RefreshTracker remembers when keys were last enriched so callers can skip
// repeated upstream calls inside the TTL window. The zero value is not usable.
type RefreshTracker struct {
	mu        sync.Mutex
	expiresAt map[string]time.Time
	ttl       time.Duration
	now       Clock
	sweepAt   time.Time
}

func NewRefreshTracker(ttl time.Duration, now Clock) *RefreshTracker {
	if now == nil {
		now = time.Now
	}
	return &RefreshTracker{
		expiresAt: make(map[string]time.Time),
		ttl:       ttl,
		now:       now,
	}
}

// ShouldRefresh is true when the key was never marked or its entry expired.
func (t *RefreshTracker) ShouldRefresh(key string) bool {
	if key == "" {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweepLocked(now)
	expiresAt, ok := t.expiresAt[key]
	return !ok || !expiresAt.After(now)
}

// MarkRefreshed records key -> now + TTL. Call it after a successful enrichment.
func (t *RefreshTracker) MarkRefreshed(key string) {
	if key == "" || t.ttl <= 0 {
		return
	}

	t.mu.Lock()
	t.expiresAt[key] = t.now().Add(t.ttl)
	t.mu.Unlock()
}

// Forget drops a key so the next ShouldRefresh returns true. Callers use it
// when the rows refreshed under the key were never persisted.
func (t *RefreshTracker) Forget(key string) {
	t.mu.Lock()
	delete(t.expiresAt, key)
	t.mu.Unlock()
}

func (t *RefreshTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.expiresAt)
}

// sweepLocked drops expired entries at most once per TTL.
func (t *RefreshTracker) sweepLocked(now time.Time) {
	if t.ttl <= 0 || now.Before(t.sweepAt) {
		return
	}
	for key, expiresAt := range t.expiresAt {
		if !expiresAt.After(now) {
			delete(t.expiresAt, key)
		}
	}
	t.sweepAt = now.Add(t.ttl)
}
