package cooldown

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisGate_Window(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	gate := NewRedisGate(client, 300*time.Millisecond)
	ctx := context.Background()
	session := uuid.NewString()

	d, err := gate.Allow(ctx, session, "4912345678904")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = gate.Allow(ctx, session, "4912345678904")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, 300*time.Millisecond)

	d, err = gate.Allow(ctx, uuid.NewString(), "4912345678904")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	time.Sleep(400 * time.Millisecond)
	d, err = gate.Allow(ctx, session, "4912345678904")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisGate_ReclaimsKeyWithoutTTL(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	session := uuid.NewString()
	k := keyPrefix + key(session, "4912345678904")
	require.NoError(t, client.Set(ctx, k, 1, 0).Err())
	defer client.Del(ctx, k)

	gate := NewRedisGate(client, time.Second)
	d, err := gate.Allow(ctx, session, "4912345678904")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "a key that no longer counts down must not block scans")

	ttl, err := client.PTTL(ctx, k).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Second)

	d, err = gate.Allow(ctx, session, "4912345678904")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}
