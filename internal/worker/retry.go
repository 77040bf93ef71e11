package worker

import (
	"math"
	"time"
)

// RetryPolicy controls how failed spreadsheet writes are rescheduled.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// withDefaults fills zero fields: 5 attempts, 2s doubling up to a minute.
func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = 5
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 2 * time.Second
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = time.Minute
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}
	return r
}

// Exhausted reports whether attempt (1-based) was the last one allowed.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= r.MaxRetries
}

// NextDelay is the wait before retrying after attempt (1-based), capped at
// MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	r = r.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if d > r.MaxDelay || d <= 0 {
		d = r.MaxDelay
	}
	return d
}
