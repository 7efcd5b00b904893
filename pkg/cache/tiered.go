package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tiered layers an optional Redis tier under an in-process Store. The local
// store is always consulted first and is the only tier exercised in tests;
// Redis is best-effort and a nil client disables it entirely.
//
// Values cross the Redis boundary as opaque bytes so callers own their own
// encoding. Redis errors are swallowed: a cache miss is always a safe answer.
type Tiered struct {
	local *Store
	rdb   *redis.Client
	ttl   time.Duration
}

// NewTiered wraps local with an optional Redis client. rdb may be nil.
func NewTiered(local *Store, rdb *redis.Client, ttl time.Duration) *Tiered {
	return &Tiered{local: local, rdb: rdb, ttl: ttl}
}

// GetBytes returns the cached payload for key, trying local then Redis.
// A Redis hit is promoted back into the local store.
func (t *Tiered) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := t.local.Get(key); ok {
		if b, ok := v.([]byte); ok {
			return b, true
		}
	}
	if t.rdb == nil {
		return nil, false
	}
	b, err := t.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	t.local.SetWithTTL(key, b, t.ttl)
	return b, true
}

// SetBytes writes the payload to both tiers.
func (t *Tiered) SetBytes(ctx context.Context, key string, payload []byte) {
	t.local.SetWithTTL(key, payload, t.ttl)
	if t.rdb != nil {
		// Fire and forget; the local tier is authoritative.
		t.rdb.Set(ctx, key, payload, t.ttl)
	}
}
