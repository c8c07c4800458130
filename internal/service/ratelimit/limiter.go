package ratelimit

import (
	"sync"
	"time"

	xhttp "SpillNet/pkg/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an unused key keeps its bucket.
const DefaultIdleTTL = 10 * time.Minute

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*bucket
	capacity int
	refill   rate.Limit
	idleTTL  time.Duration
	now      func() time.Time
	lastGC   time.Time
}

// New returns a limiter allowing bursts of capacity and refillPerSec tokens per second per key.
func New(capacity, refillPerSec float64) *Limiter {
	burst := int(capacity)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:        make(map[string]*bucket),
		capacity: burst,
		refill:   rate.Limit(refillPerSec),
		idleTTL:  DefaultIdleTTL,
		now:      time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(now)
	b, ok := l.m[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.refill, l.capacity)}
		l.m[key] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// evict drops idle buckets at most once per idleTTL. Caller holds mu.
func (l *Limiter) evict(now time.Time) {
	if now.Sub(l.lastGC) < l.idleTTL {
		return
	}
	for k, b := range l.m {
		if now.Sub(b.seen) >= l.idleTTL {
			delete(l.m, k)
		}
	}
	l.lastGC = now
}

// Middleware rejects requests over the per-client-IP budget with 429.
// Paths in skip are never limited.
func (l *Limiter) Middleware(skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skipped[c.Path()]; ok {
				return next(c)
			}
			if !l.Allow(c.RealIP()) {
				return xhttp.TooManyRequestsResponse(c)
			}
			return next(c)
		}
	}
}
