package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lease is a best-effort distributed lock backed by Redis SETNX. The TTL
// bounds how long a crashed holder can block other instances.
type Lease struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewLease(rdb *redis.Client, key string, ttl time.Duration) *Lease {
	return &Lease{rdb: rdb, key: key, ttl: ttl}
}

// Acquire attempts to take the lease. Returns false when another holder has it.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, "1", l.ttl).Result()
}

// Release gives the lease back.
func (l *Lease) Release(ctx context.Context) error {
	return l.rdb.Del(ctx, l.key).Err()
}
