package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/core/domain"
)

const (
	cartKeyPrefix  = "cart:"
	DefaultCartTTL = 120 * time.Minute
)

// RedisAdapter stores one JSON document per visitor. The key expires after
// ttl without writes, which ends the cart together with the session.
type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) GetCart(ctx context.Context, visitorID string) (domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+visitorID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return decodeCart(data)
}

func (r *RedisAdapter) PutCart(ctx context.Context, visitorID string, cart domain.Cart) error {
	key := cartKeyPrefix + visitorID

	if len(cart) == 0 {
		return r.client.Del(ctx, key).Err()
	}

	data, err := encodeCart(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
