package repository

import (
	"context"
	"testing"
	"time"

	"autoshop/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRecordStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisRecordStore(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		payload := []byte(`{"id":"2","role":"customer"}`)
		require.NoError(t, repo.Set(ctx, "c1:mock_user", payload))

		got, err := repo.Get(ctx, "c1:mock_user")
		require.NoError(t, err)
		assert.Equal(t, payload, got)
		assert.Equal(t, time.Hour, s.TTL("record:c1:mock_user"))
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "c2:mock_user", []byte("x")))
		require.NoError(t, repo.Delete(ctx, "c2:mock_user"))

		got, _ := repo.Get(ctx, "c2:mock_user")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, "c3", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, "c3", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, "c3", 2, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, "c3", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisRecordStore(nil, time.Hour)
		_, err := repo.Get(ctx, "k")
		assert.ErrorContains(t, err, "redis client is nil")
		assert.Error(t, repo.Set(ctx, "k", nil))
		assert.Error(t, repo.Delete(ctx, "k"))
		_, err = repo.CheckRateLimit(ctx, "k", 1, time.Second)
		assert.Error(t, err)
	})

	t.Run("ServerDown", func(t *testing.T) {
		dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		defer dead.Close()
		_, err := NewRedisRecordStore(dead, time.Hour).Get(ctx, "k")
		assert.Error(t, err)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(client))
		assert.NoError(t, Close(nil))
	})
}
