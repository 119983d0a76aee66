package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/grocify/pkg/database"
)

const idempotencyKeyPrefix = "grocify:idempotency:"

// releaseScript deletes a key only while it still holds the expected value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore implements repository.IdempotencyStore using Redis keys
// that expire after the configured TTL.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a Redis-backed idempotency store.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve binds key to orderID with SET NX. When the key is taken it returns
// the order id already bound to it.
func (s *IdempotencyStore) Reserve(ctx context.Context, key, orderID string) (boundID string, reserved bool, err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemRedis, "SETNX", "SET "+idempotencyKeyPrefix+"* NX")
	defer func() { done(err) }()

	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, orderID, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis reserve idempotency key: %w", err)
	}
	if ok {
		return orderID, true, nil
	}

	boundID, err = s.client.Get(ctx, idempotencyKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, fmt.Errorf("idempotency key expired while reserving")
		}
		return "", false, fmt.Errorf("redis get idempotency key: %w", err)
	}
	return boundID, false, nil
}

// Release deletes key if it is still bound to orderID.
func (s *IdempotencyStore) Release(ctx context.Context, key, orderID string) (err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemRedis, "EVALSHA", "release "+idempotencyKeyPrefix+"*")
	defer func() { done(err) }()

	if err := releaseScript.Run(ctx, s.client, []string{idempotencyKeyPrefix + key}, orderID).Err(); err != nil {
		return fmt.Errorf("redis release idempotency key: %w", err)
	}
	return nil
}
