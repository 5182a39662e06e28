package memory

import (
	"context"
	"sync"
	"time"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

type cacheEntry struct {
	value     domain.ProfileAsOf
	expiresAt time.Time
}

// ProfileCache is an in-memory implementation of storage.ProfileCache.
// A zero TTL keeps entries forever.
type ProfileCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]cacheEntry // keyed by customer_id
}

// NewProfileCache creates a new in-memory profile cache.
func NewProfileCache(ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[string]cacheEntry),
	}
}

// PutProfiles caches every profile of snap.
func (c *ProfileCache) PutProfiles(_ context.Context, snap *domain.ProfileSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	for _, p := range snap.Profiles {
		copy := *p
		c.data[p.CustomerID] = cacheEntry{
			value:     domain.ProfileAsOf{SnapshotID: snap.SnapshotID, SnapshotAt: snap.SnapshotAt, Profile: &copy},
			expiresAt: expiresAt,
		}
	}
	return nil
}

// GetLatest returns the cached profile. Returns ErrNotFound on a miss or expiry.
func (c *ProfileCache) GetLatest(_ context.Context, customerID string) (*domain.ProfileAsOf, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[customerID]
	if !ok || (!e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)) {
		return nil, storage.ErrNotFound
	}
	out := e.value
	copy := *e.value.Profile
	out.Profile = &copy
	return &out, nil
}

var _ storage.ProfileCache = (*ProfileCache)(nil)
