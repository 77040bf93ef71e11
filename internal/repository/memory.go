package repository

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	value     []byte
	expiresAt time.Time
}

// MemoryRecordStore keeps records in process memory. It is the fallback when
// Redis is not configured or unreachable.
type MemoryRecordStore struct {
	records    sync.Map
	rateLimits sync.Map
	ttl        time.Duration
	now        func() time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// memorySweepInterval spaces out the removal of expired entries.
const memorySweepInterval = time.Minute

func NewMemoryRecordStore(ttl time.Duration) *MemoryRecordStore {
	return &MemoryRecordStore{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemoryRecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, ok := r.records.Load(key)
	if !ok {
		return nil, nil
	}
	rec := val.(*memoryRecord)
	if !rec.expiresAt.IsZero() && r.now().After(rec.expiresAt) {
		r.records.Delete(key)
		return nil, nil
	}
	out := make([]byte, len(rec.value))
	copy(out, rec.value)
	return out, nil
}

func (r *MemoryRecordStore) Set(ctx context.Context, key string, value []byte) error {
	now := r.now()
	r.sweep(now)
	rec := &memoryRecord{value: append([]byte(nil), value...)}
	if r.ttl > 0 {
		rec.expiresAt = now.Add(r.ttl)
	}
	r.records.Store(key, rec)
	return nil
}

func (r *MemoryRecordStore) Delete(ctx context.Context, key string) error {
	r.records.Delete(key)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemoryRecordStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	r.sweep(now)
	val, _ := r.rateLimits.LoadOrStore(key, &rateLimitEntry{expiresAt: now.Add(window)})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}

// sweep drops expired records and rate limit windows. Entries nobody reads
// again would otherwise stay for the life of the process.
func (r *MemoryRecordStore) sweep(now time.Time) {
	r.sweepMu.Lock()
	if now.Sub(r.lastSweep) < memorySweepInterval {
		r.sweepMu.Unlock()
		return
	}
	r.lastSweep = now
	r.sweepMu.Unlock()

	r.records.Range(func(key, val any) bool {
		if rec := val.(*memoryRecord); !rec.expiresAt.IsZero() && now.After(rec.expiresAt) {
			r.records.CompareAndDelete(key, val)
		}
		return true
	})
	r.rateLimits.Range(func(key, val any) bool {
		entry := val.(*rateLimitEntry)
		entry.mu.Lock()
		expired := now.After(entry.expiresAt)
		entry.mu.Unlock()
		if expired {
			r.rateLimits.CompareAndDelete(key, val)
		}
		return true
	})
}
