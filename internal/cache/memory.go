package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/models"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryUserCache is a mutex-guarded TTL map with the same semantics as the
// redis cache. Used in tests and when no redis address is configured.
type MemoryUserCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryUserCache(ttl time.Duration) *MemoryUserCache {
	return &MemoryUserCache{entries: make(map[string]memoryEntry), ttl: ttl}
}

func (c *MemoryUserCache) Get(_ context.Context, email string) (*models.Snapshot, error) {
	c.mu.RLock()
	e, ok := c.entries[email]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, email)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}
	var snap models.Snapshot
	if err := json.Unmarshal(e.raw, &snap); err != nil {
		return nil, ErrCacheMiss
	}
	return &snap, nil
}

func (c *MemoryUserCache) Put(_ context.Context, email string, snap *models.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[email] = memoryEntry{raw: raw, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}
