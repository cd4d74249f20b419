package dedup

import (
	"context"
	"time"
)

// Deduplicator lets at most one consumer act on a key within ttl.
type Deduplicator interface {
	// Claim returns false if the key has already been claimed and not released.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
