package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"autoshop/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverRecordStore writes to primary until it fails, then serves from
// fallback and probes primary again once per recoverAfter.
type FailoverRecordStore struct {
	primary      domain.RecordStore
	fallback     domain.RecordStore
	logger       *zerolog.Logger
	isDown       atomic.Bool
	mu           sync.Mutex
	lastCheck    time.Time
	recoverAfter time.Duration
}

func NewFailoverRecordStore(primary, fallback domain.RecordStore, logger *zerolog.Logger) *FailoverRecordStore {
	return &FailoverRecordStore{
		primary:      primary,
		fallback:     fallback,
		logger:       logger,
		recoverAfter: time.Minute,
	}
}

func (r *FailoverRecordStore) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary record store failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverRecordStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > r.recoverAfter {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverRecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	if r.usePrimary() {
		val, err := r.primary.Get(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			return val, nil
		}
		r.markDown(err)
	}
	return r.fallback.Get(ctx, key)
}

func (r *FailoverRecordStore) Set(ctx context.Context, key string, value []byte) error {
	if r.usePrimary() {
		err := r.primary.Set(ctx, key, value)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.Set(ctx, key, value)
}

func (r *FailoverRecordStore) Delete(ctx context.Context, key string) error {
	// records written during an outage live in fallback
	fbErr := r.fallback.Delete(ctx, key)
	if r.usePrimary() {
		err := r.primary.Delete(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return fbErr
}

func (r *FailoverRecordStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
