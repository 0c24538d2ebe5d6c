package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the NonceStore interface with a shared external KV, so
// multiple facilitator processes behind a load balancer share replay
// protection instead of each holding its own in-memory map. Selected when a
// Redis URL is configured (redis_url in the config file,
// FACILITATOR_REDIS_URL, or --redis-url); see §5's note that the NonceStore MAY be
// substituted with an equivalent shared store.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the given Redis address.
func NewRedisStore(addr, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (r *RedisStore) key(payer, nonceKey string) string {
	return fmt.Sprintf("%s:nonce:%s:%s", r.prefix, payer, nonceKey)
}

func (r *RedisStore) MarkUsed(ctx context.Context, payer, key string, expiresAt int64) error {
	ttl := time.Until(time.Unix(expiresAt, 0))
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.client.Set(ctx, r.key(payer, key), "1", ttl).Err()
}

func (r *RedisStore) IsUsed(ctx context.Context, payer, key string) (bool, error) {
	_, err := r.client.Get(ctx, r.key(payer, key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	return true, nil
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
