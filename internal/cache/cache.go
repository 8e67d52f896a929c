package cache

import (
	"context"
	"errors"

	"github.com/fathima-sithara/contacts-api/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

// UserCache maps an identity (email) to a user snapshot with a fixed TTL.
// It is never authoritative: the credential store remains the source of truth
// and entries age out by TTL only, with no explicit invalidation. A mutation
// may therefore be observed stale for up to one TTL window.
type UserCache interface {
	Get(ctx context.Context, email string) (*models.Snapshot, error)
	Put(ctx context.Context, email string, snap *models.Snapshot) error
}
