package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// HeaderIdempotencyKey lets clients retry a create without duplicating it.
const HeaderIdempotencyKey = "Idempotency-Key"

// RedisDeduper stores seen idempotency keys in Redis so every instance of
// the server rejects the same create.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func dedupeKey(userID, key string) string {
	return "idem:" + userID + ":" + key
}

// Add records the key if it does not already exist. It returns true when the
// key was newly added.
func (r *RedisDeduper) Add(ctx context.Context, userID, key string) (bool, error) {
	return r.client.SetNX(ctx, dedupeKey(userID, key), 1, r.ttl).Result()
}

// Remove deletes a previously recorded key.
func (r *RedisDeduper) Remove(ctx context.Context, userID, key string) error {
	return r.client.Del(ctx, dedupeKey(userID, key)).Err()
}
