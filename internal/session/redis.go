package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redeemGrace keeps expired sessions around long enough for redemption to
// observe them and report expiry rather than not-found.
const redeemGrace = time.Hour

// RedisStore keeps sessions in Redis with native TTL cleanup.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "qrsession:", now: time.Now}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

// Put inserts a new session.
func (s *RedisStore) Put(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := sess.ExpiresAt.Sub(s.now()) + redeemGrace
	ok, err := s.client.SetNX(ctx, s.key(sess.ID), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateID
	}
	return nil
}

// Get returns the session for id.
func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

// MarkExpired deactivates the session in place, keeping the remaining TTL.
func (s *RedisStore) MarkExpired(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !sess.Active {
		return nil
	}
	sess.Active = false
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.key(id), data, redis.KeepTTL).Err()
}

// Reap is a no-op: Redis evicts keys by TTL on its own.
func (s *RedisStore) Reap(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
