package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoshop/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	recordPrefix    = "record:"
	rateLimitPrefix = "rate_limit:"
)

var errNoRedis = errors.New("redis client is nil")

// RedisRecordStore keeps client records in redis so sessions and drafts
// survive restarts and are shared between instances.
type RedisRecordStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisRecordStore(client *redis.Client, ttl time.Duration) *RedisRecordStore {
	return &RedisRecordStore{client: client, ttl: ttl}
}

// Get returns nil without error for a missing record.
func (r *RedisRecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	if r.client == nil {
		return nil, errNoRedis
	}
	val, err := r.client.Get(ctx, recordPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("get record %s: %w", key, err)
	}
	return val, nil
}

// Set overwrites the record and restarts its TTL.
func (r *RedisRecordStore) Set(ctx context.Context, key string, value []byte) error {
	if r.client == nil {
		return errNoRedis
	}
	if err := r.client.Set(ctx, recordPrefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("set record %s: %w", key, err)
	}
	return nil
}

func (r *RedisRecordStore) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return errNoRedis
	}
	if err := r.client.Del(ctx, recordPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}

// CheckRateLimit counts one attempt in a fixed window that starts with the
// first attempt.
func (r *RedisRecordStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNoRedis
	}
	rkey := rateLimitPrefix + key

	count, err := r.client.Incr(ctx, rkey).Result()
	if err != nil {
		return false, fmt.Errorf("count attempt %s: %w", key, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, rkey, window).Err(); err != nil {
			return false, fmt.Errorf("start window %s: %w", key, err)
		}
	}
	return count <= int64(limit), nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errNoRedis
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
