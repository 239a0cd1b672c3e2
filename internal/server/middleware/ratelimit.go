package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 10 * time.Minute
	limiterIdleCutoff    = 30 * time.Minute
)

// limiterPool hands out one token bucket per key and evicts buckets idle
// longer than limiterIdleCutoff so the map cannot grow without bound.
type limiterPool[K comparable] struct {
	mu      sync.Mutex
	buckets map[K]*pooledLimiter
	rps     float64
	burst   int
}

type pooledLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool[K comparable](ctx context.Context, rps float64, burst int) *limiterPool[K] {
	p := &limiterPool[K]{
		buckets: make(map[K]*pooledLimiter),
		rps:     rps,
		burst:   burst,
	}
	go p.sweep(ctx)
	return p
}

func (p *limiterPool[K]) allow(key K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.buckets[key]
	if !ok {
		b = &pooledLimiter{limiter: rate.NewLimiter(rate.Limit(p.rps), p.burst)}
		p.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (p *limiterPool[K]) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterIdleCutoff)
			p.mu.Lock()
			for key, b := range p.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(p.buckets, key)
				}
			}
			p.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func tooManyRequests(w http.ResponseWriter) {
	http.Error(w, `{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`, http.StatusTooManyRequests)
}

// RateLimitByIP throttles unauthenticated endpoints per client address.
// RemoteAddr is trusted to be the real client because chi's RealIP runs
// earlier in the chain. ctx bounds the lifetime of the eviction goroutine.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool[string](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pool.allow(r.RemoteAddr) {
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit throttles authenticated endpoints per tenant, so one noisy
// tenant cannot starve the rest. Requests without a tenant in context pass
// through; RequireTenant is the guard for those, not the limiter.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool[uuid.UUID](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := TenantIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if !pool.allow(tenantID) {
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
