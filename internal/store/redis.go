package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// healthDeadline bounds the health probe even when the caller's context
// carries no deadline of its own.
const healthDeadline = time.Second

// Redis wraps the shared client used by the Redis session backend and the
// event queue. Per-call deadlines are tight: a slow Redis on the redemption
// path should fail the lookup, not hold the request open.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis sized for many short session lookups.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     16,
		MinIdleConns: 2,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity within healthDeadline.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthDeadline)
	defer cancel()
	return r.Client.Ping(ctx).Err() == nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
