package lease

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisAddr = "localhost:6379"

func setupRedis(t *testing.T, key string) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	client.Del(ctx, key)
	t.Cleanup(func() {
		client.Del(context.Background(), key)
		client.Close()
	})
	return client
}

func TestRedis_AcquireRelease(t *testing.T) {
	const key = "taskmaster:test:lease"
	client := setupRedis(t, key)
	ctx := context.Background()

	first := NewRedis(client, key, time.Minute, discard)
	second := NewRedis(client, key, time.Minute, discard)

	release, ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	release2, ok, err := second.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// A release carrying another holder's token leaves the key alone.
	require.NoError(t, releaseScript.Run(ctx, client, []string{key}, "stale").Err())
	_, ok, err = first.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	release2()
}

func TestRedis_Expires(t *testing.T) {
	const key = "taskmaster:test:lease:ttl"
	client := setupRedis(t, key)
	ctx := context.Background()

	_, ok, err := NewRedis(client, key, 50*time.Millisecond, discard).TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		release, ok, err := NewRedis(client, key, time.Minute, discard).TryAcquire(ctx)
		if err != nil || !ok {
			return false
		}
		release()
		return true
	}, time.Second, 20*time.Millisecond)
}
