package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecordStore(t *testing.T) {
	repo := NewMemoryRecordStore(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "client:mock_user", []byte(`{"id":"1"}`)))

		got, err := repo.Get(ctx, "client:mock_user")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"id":"1"}`), got)
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		got, _ := repo.Get(ctx, "client:mock_user")
		got[0] = 'X'
		again, _ := repo.Get(ctx, "client:mock_user")
		assert.Equal(t, byte('{'), again[0])
	})

	t.Run("Missing", func(t *testing.T) {
		got, err := repo.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "client:mock_user"))
		got, _ := repo.Get(ctx, "client:mock_user")
		assert.Nil(t, got)
		// idempotent
		assert.NoError(t, repo.Delete(ctx, "client:mock_user"))
	})

	t.Run("Expiry", func(t *testing.T) {
		now := time.Now()
		repo.now = func() time.Time { return now }
		require.NoError(t, repo.Set(ctx, "draft", []byte("x")))

		repo.now = func() time.Time { return now.Add(2 * time.Hour) }
		got, err := repo.Get(ctx, "draft")
		require.NoError(t, err)
		assert.Nil(t, got)
		repo.now = time.Now
	})

	t.Run("RateLimit", func(t *testing.T) {
		now := time.Now()
		repo.now = func() time.Time { return now }
		defer func() { repo.now = time.Now }()

		allowed, _ := repo.CheckRateLimit(ctx, "sign-in:c1", 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, "sign-in:c1", 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, "sign-in:c1", 2, time.Second)
		assert.False(t, allowed)

		repo.now = func() time.Time { return now.Add(time.Second + 10*time.Millisecond) }
		allowed, _ = repo.CheckRateLimit(ctx, "sign-in:c1", 2, time.Second)
		assert.True(t, allowed)
	})
}

func countEntries(m interface{ Range(func(any, any) bool) }) int {
	n := 0
	m.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

func TestMemoryRecordStore_SweepsExpiredEntries(t *testing.T) {
	repo := NewMemoryRecordStore(time.Minute)
	ctx := context.Background()
	now := time.Now()
	repo.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("test:%d:auth_attempts", i)
		_, err := repo.CheckRateLimit(ctx, key, 10, time.Minute)
		require.NoError(t, err)
		require.NoError(t, repo.Set(ctx, fmt.Sprintf("test:%d:session", i), []byte("x")))
	}
	assert.Equal(t, 50, countEntries(&repo.rateLimits))
	assert.Equal(t, 50, countEntries(&repo.records))

	repo.now = func() time.Time { return now.Add(2 * time.Minute) }
	allowed, err := repo.CheckRateLimit(ctx, "test:fresh:auth_attempts", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, 1, countEntries(&repo.rateLimits))
	assert.Equal(t, 0, countEntries(&repo.records))
}
