package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when the key does not exist.
var ErrMiss = errors.New("cache miss")

// KV is a thin string key/value wrapper over the Redis client.
type KV struct {
	client *redis.Client
}

// NewKV wraps a Redis client.
func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

// Get returns the cached value or ErrMiss.
func (k *KV) Get(ctx context.Context, key string) (string, error) {
	val, err := k.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

// Set stores a value with a TTL.
func (k *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return k.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes keys, ignoring missing ones.
func (k *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return k.client.Del(ctx, keys...).Err()
}
