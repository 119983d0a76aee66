package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/grocify/pkg/database"
	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
)

const cartKeyPrefix = "grocify:cart:"

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a session's cart from Redis.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (cart *domain.Cart, err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemRedis, "GET", "GET "+cartKeyPrefix+"*")
	defer func() { done(err) }()

	data, err := r.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	cart = domain.NewCart()
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return cart, nil
}

// Save persists a cart with the configured TTL.
func (r *CartRepository) Save(ctx context.Context, sessionID string, cart *domain.Cart) (err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemRedis, "SET", "SET "+cartKeyPrefix+"*")
	defer func() { done(err) }()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, cartKeyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// Delete removes a session's cart.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) (err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemRedis, "DEL", "DEL "+cartKeyPrefix+"*")
	defer func() { done(err) }()

	if err := r.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}
