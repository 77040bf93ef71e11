package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"autoshop/internal/config"
	"autoshop/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	clientCookieName = "autoshop_client"
	requestIDHeader  = "X-Request-ID"
)

type clientIDKey struct{}

// clientIDFromContext returns the id stored by clientCookie.
func clientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}

// requestLogger tags every request with an id and stores a child logger in
// the context.
func requestLogger(base *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			l := base.With().Str("request_id", requestID).Logger()
			ctx := l.WithContext(r.Context())

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			dur := time.Since(start)
			endpoint := routePattern(r)
			metrics.ObserveHTTP(endpoint, strconv.Itoa(recorder.status), dur)

			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", endpoint).
				Int("status", recorder.status).
				Dur("duration", dur).
				Msg("http request")
		})
	}
}

// routePattern keeps metric labels bounded by using the matched chi route.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// clientCookie assigns every browser an opaque client id. The id keys the
// session provider and all records of that client.
func clientCookie(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var clientID string
			if c, err := r.Cookie(clientCookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					clientID = c.Value
				}
			}
			if clientID == "" {
				clientID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     clientCookieName,
					Value:    clientID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), clientIDKey{}, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientAddr is the host part of the peer address. The client cookie is
// chosen by the caller, so limits that must hold key on this instead.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limiterIdle is the minimum time a bucket stays after its last use.
const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64
}

// rateLimiter keeps one token bucket per peer address. Buckets unused for
// longer than they need to refill are dropped.
type rateLimiter struct {
	limiters sync.Map
	cfg      config.APIRateLimitConfig
	idle     time.Duration
	now      func() time.Time

	mu        sync.Mutex
	lastSweep time.Time
}

func newRateLimiter(cfg config.APIRateLimitConfig) *rateLimiter {
	l := &rateLimiter{cfg: cfg, idle: limiterIdle, now: time.Now}
	if cfg.RPS > 0 {
		if refill := time.Duration(float64(l.burst()) / cfg.RPS * float64(time.Second)); refill > l.idle {
			l.idle = refill
		}
	}
	return l
}

func (l *rateLimiter) burst() int {
	if l.cfg.Burst <= 0 {
		return 5
	}
	return l.cfg.Burst
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	now := l.now()
	l.sweep(now)

	if v, ok := l.limiters.Load(key); ok {
		if entry, ok := v.(*limiterEntry); ok {
			entry.lastSeen.Store(now.UnixNano())
			return entry.lim
		}
	}

	entry := &limiterEntry{lim: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.burst())}
	entry.lastSeen.Store(now.UnixNano())
	actual, loaded := l.limiters.LoadOrStore(key, entry)
	if loaded {
		if actualEntry, ok := actual.(*limiterEntry); ok {
			actualEntry.lastSeen.Store(now.UnixNano())
			return actualEntry.lim
		}
	}
	return entry.lim
}

// sweep runs at most once per idle period.
func (l *rateLimiter) sweep(now time.Time) {
	l.mu.Lock()
	if now.Sub(l.lastSweep) < l.idle {
		l.mu.Unlock()
		return
	}
	l.lastSweep = now
	l.mu.Unlock()

	cutoff := now.Add(-l.idle).UnixNano()
	l.limiters.Range(func(key, v any) bool {
		if entry, ok := v.(*limiterEntry); ok && entry.lastSeen.Load() < cutoff {
			l.limiters.CompareAndDelete(key, v)
		}
		return true
	})
}

func (l *rateLimiter) size() int {
	n := 0
	l.limiters.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.cfg.RPS > 0 && !l.getLimiter(clientAddr(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "Muitas requisições, aguarde um momento")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
