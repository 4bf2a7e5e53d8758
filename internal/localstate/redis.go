package localstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores state under "<prefix>:<namespace>:<key>".  The namespace is
// typically a device or kiosk identifier so several clients can share one
// Redis without clobbering each other's carts.  A zero TTL keeps keys until
// they are removed explicitly.
type Redis struct {
	client    *redis.Client
	prefix    string
	namespace string
	ttl       time.Duration
}

// NewRedis builds a Redis-backed store.  An empty prefix defaults to "state".
func NewRedis(client *redis.Client, prefix, namespace string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "state"
	}
	return &Redis{client: client, prefix: prefix, namespace: namespace, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: redis get: %v", ErrStoreUnavailable, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: redis delete: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Redis) key(k string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, r.namespace, k)
}
