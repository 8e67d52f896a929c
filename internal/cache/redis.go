package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/models"
	"github.com/redis/go-redis/v9"
)

const userKeyPrefix = "user:"

type redisUserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisUserCache builds the redis-backed session cache. Snapshots are
// stored as JSON strings, so a concurrent get sees either the old or the new
// value in full.
func NewRedisUserCache(rdb *redis.Client, ttl time.Duration) UserCache {
	return &redisUserCache{rdb: rdb, ttl: ttl}
}

func (c *redisUserCache) Get(ctx context.Context, email string) (*models.Snapshot, error) {
	raw, err := c.rdb.Get(ctx, userKeyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user cache: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// corrupted entry behaves like a miss, the store resolves it
		return nil, ErrCacheMiss
	}
	return &snap, nil
}

func (c *redisUserCache) Put(ctx context.Context, email string, snap *models.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode user snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, userKeyPrefix+email, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write user cache: %w", err)
	}
	return nil
}
