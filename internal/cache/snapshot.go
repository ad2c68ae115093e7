package cache

import (
	"sync"
	"time"

	"ndx-snapshot-backend/internal/models"
)

// SnapshotCache holds at most one quote snapshot in process memory. Every
// read and write deep-copies, so callers never share state with the cache.
type SnapshotCache struct {
	mu   sync.RWMutex
	snap *snapshot
	now  func() time.Time
}

type snapshot struct {
	quotes    []models.Quote
	fetchedAt time.Time
}

type Option func(*SnapshotCache)

// WithClock replaces the wall clock used for stamping and age checks.
func WithClock(now func() time.Time) Option {
	return func(c *SnapshotCache) {
		c.now = now
	}
}

func NewSnapshotCache(opts ...Option) *SnapshotCache {
	c := &SnapshotCache{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the snapshot when it is no older than maxAge.
func (c *SnapshotCache) Get(maxAge time.Duration) ([]models.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		return nil, false
	}
	if c.now().Sub(c.snap.fetchedAt) > maxAge {
		return nil, false
	}
	return models.CloneQuotes(c.snap.quotes), true
}

// Put replaces the snapshot, stamped with the current time.
func (c *SnapshotCache) Put(quotes []models.Quote) {
	copied := models.CloneQuotes(quotes)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = &snapshot{quotes: copied, fetchedAt: c.now()}
}

func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
}

// StoredAt reports when the current snapshot was written.
func (c *SnapshotCache) StoredAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		return time.Time{}, false
	}
	return c.snap.fetchedAt, true
}
