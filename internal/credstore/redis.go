package credstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/docreview/internal/log"
)

const defaultRedisTimeout = 2 * time.Second

// RedisStore keeps credentials in Redis under a key prefix.
//
// Intended for shared build agents where several processes act as the same
// user. Every call is bounded by a short timeout; failures are logged and
// reported as absent keys.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
	logger  *log.Logger
}

// NewRedisStore creates a Redis-backed store using prefix for all keys.
func NewRedisStore(client redis.UniversalClient, prefix string, logger *log.Logger) *RedisStore {
	if prefix == "" {
		prefix = "docreview:"
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		timeout: defaultRedisTimeout,
		logger:  logger.With("store", "redis"),
	}
}

// Get returns the value stored under key.
func (r *RedisStore) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}

// Set stores value under key without expiry.
func (r *RedisStore) Set(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		r.logger.Warn("redis set failed", "key", key, "error", err)
	}
}

// Remove deletes key.
func (r *RedisStore) Remove(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logger.Warn("redis delete failed", "key", key, "error", err)
	}
}

// Ping checks that the server answers.
func (r *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}
