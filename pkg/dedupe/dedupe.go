package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStore wraps failures of the dedupe store itself, as opposed to errors
// returned by the guarded function.
var ErrStore = errors.New("dedupe store unavailable")

// ErrNotRecorded is returned when the guarded function succeeded but the key
// could not be recorded afterwards. The work is done; a redelivery would run
// it again.
var ErrNotRecorded = errors.New("processed message not recorded")

// Store remembers which messages were already processed so redelivered
// duplicates can be acked without running the handler twice.
type Store interface {
	// Seen reports whether key was recorded as processed.
	Seen(ctx context.Context, scope, key string) (bool, error)
	// Mark records key as processed.
	Mark(ctx context.Context, scope, key string) error
}

// RedisStore keeps processed message ids in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store using the provided client and TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(scope, key string) string {
	return fmt.Sprintf("dedupe:%s:%s", scope, key)
}

func (r *RedisStore) Seen(ctx context.Context, scope, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(scope, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStore) Mark(ctx context.Context, scope, key string) error {
	return r.client.Set(ctx, r.key(scope, key), 1, r.ttl).Err()
}

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// Nop never reports duplicates. It is used when no Redis is configured.
type Nop struct{}

func (Nop) Seen(context.Context, string, string) (bool, error) { return false, nil }

func (Nop) Mark(context.Context, string, string) error { return nil }

// Once runs fn unless key was already recorded in scope. The key is recorded
// only after fn returns nil, so a handler that fails or never returns leaves
// the message to be handled again on redelivery. A store error on the lookup
// is returned without running fn.
func Once(ctx context.Context, store Store, scope, key string, fn func() error) (duplicate bool, err error) {
	if key == "" {
		return false, fn()
	}

	seen, err := store.Seen(ctx, scope, key)
	if err != nil {
		return false, fmt.Errorf("%w: lookup %s: %v", ErrStore, key, err)
	}
	if seen {
		return true, nil
	}

	if err := fn(); err != nil {
		return false, err
	}

	if err := store.Mark(ctx, scope, key); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrNotRecorded, key, err)
	}
	return false, nil
}
