package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/tbrd-ui/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestStorage_SetAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStorage(client, StorageOptions{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "profile-1", "tbrd.guestSession", `{"name":"Guest"}`))

	value, ok, err := store.Get(ctx, "profile-1", "tbrd.guestSession")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"Guest"}`, value)
}

func TestStorage_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStorage(client, StorageOptions{})

	_, ok, err := store.Get(context.Background(), "profile-missing", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStorage(client, StorageOptions{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "profile-del", "k", "v"))
	require.NoError(t, store.Delete(ctx, "profile-del", "k"))
	require.NoError(t, store.Delete(ctx, "profile-del", "k"))

	_, ok, err := store.Get(ctx, "profile-del", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_TTLExpiration(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStorage(client, StorageOptions{TTL: 100 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "profile-ttl", "k", "v"))
	time.Sleep(200 * time.Millisecond)

	_, ok, err := store.Get(ctx, "profile-ttl", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_GetSlidesTTL(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStorage(client, StorageOptions{TTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "profile-slide", "tbrd.guestSession", "v"))
	require.NoError(t, client.Expire(ctx, "tbrd:profile-slide:tbrd.guestSession", time.Minute).Err())

	_, ok, err := store.Get(ctx, "profile-slide", "tbrd.guestSession")
	require.NoError(t, err)
	require.True(t, ok)

	ttl := client.TTL(ctx, "tbrd:profile-slide:tbrd.guestSession").Val()
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestStorage_ReadKeepsKeyAlive(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStorage(client, StorageOptions{TTL: 300 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "profile-alive", "k", "v"))
	for range 3 {
		time.Sleep(150 * time.Millisecond)
		_, ok, err := store.Get(ctx, "profile-alive", "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestStorage_CustomPrefix(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStorage(client, StorageOptions{Prefix: "test-prefix:"})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "p", "idp.account", "{}"))

	exists := client.Exists(ctx, "test-prefix:p:idp.account").Val()
	assert.Equal(t, int64(1), exists)
}

func TestStorage_EmptyProfile(t *testing.T) {
	store := NewStorage(nil, StorageOptions{})
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "", "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Error(t, store.Set(ctx, "", "k", "v"))
	assert.NoError(t, store.Delete(ctx, "", "k"))
}
