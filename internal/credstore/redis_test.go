package credstore

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/docreview/internal/log"
)

// setupTestRedis returns a client for DOCREVIEW_TEST_REDIS_ADDR or skips.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("DOCREVIEW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DOCREVIEW_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client, "docreview-test:"+t.Name()+":", log.Nop())
	exerciseStore(t, store)
}

func TestRedisStore_UnreachableReadsAsAbsent(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	store := NewRedisStore(client, "", log.Nop())
	assert.NotPanics(t, func() { store.Set(KeyToken, "x") })

	_, ok := store.Get(KeyToken)
	assert.False(t, ok)
	assert.NotPanics(t, func() { store.Remove(KeyToken) })
}
