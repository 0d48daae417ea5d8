package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisIdempotencyStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisIdempotencyStoreWithClient(client, "test:")
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func redisConfigFor(t *testing.T, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}
}

func TestRedisIdempotencyStore_Lifecycle(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	stored, reserved, err := store.Reserve(ctx, "tenant-a:key", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Nil(t, stored)
	assert.Equal(t, pendingMarker, mustGet(t, mr, "test:tenant-a:key"))

	_, reserved, err = store.Reserve(ctx, "tenant-a:key", time.Hour)
	assert.ErrorIs(t, err, shared.ErrRequestInProgress)
	assert.False(t, reserved)

	require.NoError(t, store.Complete(ctx, "tenant-a:key", shared.StoredResponse{
		Status:      201,
		ContentType: "application/json; charset=utf-8",
		Body:        []byte(`{"success":true,"data":{"invoiceNumber":7}}`),
	}, time.Hour))

	stored, reserved, err = store.Reserve(ctx, "tenant-a:key", time.Hour)
	require.NoError(t, err)
	assert.False(t, reserved)
	require.NotNil(t, stored)
	assert.Equal(t, 201, stored.Status)
	assert.Equal(t, "application/json; charset=utf-8", stored.ContentType)
	assert.JSONEq(t, `{"success":true,"data":{"invoiceNumber":7}}`, string(stored.Body))
}

func TestRedisIdempotencyStore_Release(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	_, _, err := store.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k"))
	assert.False(t, mr.Exists("test:k"))

	_, reserved, err := store.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestRedisIdempotencyStore_TTL(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	_, _, err := store.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("test:k"))

	mr.FastForward(2 * time.Minute)

	_, reserved, err := store.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestRedisIdempotencyStore_CorruptValue(t *testing.T) {
	mr, store := setupTestRedis(t)
	require.NoError(t, mr.Set("test:k", "{not json"))

	_, _, err := store.Reserve(context.Background(), "k", time.Hour)
	assert.Error(t, err)
}

func TestRedisIdempotencyStore_ServerDown(t *testing.T) {
	mr, store := setupTestRedis(t)
	mr.Close()

	_, _, err := store.Reserve(context.Background(), "k", time.Hour)
	assert.Error(t, err)
}

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	t.Run("disabled redis uses memory", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(context.Background())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("reachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, err := NewIdempotencyStoreFactory(redisConfigFor(t, mr), WithLogger(zap.NewNop())).CreateStore(context.Background())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisIdempotencyStore{}, store)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := redisConfigFor(t, mr)
		mr.Close()

		store, err := NewIdempotencyStoreFactory(cfg).CreateStore(context.Background())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis without fallback", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := redisConfigFor(t, mr)
		mr.Close()

		_, err := NewIdempotencyStoreFactory(cfg, WithInMemoryFallback(false), WithConnectTimeout(time.Second)).CreateStore(context.Background())
		assert.ErrorContains(t, err, "redis required")
	})
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
