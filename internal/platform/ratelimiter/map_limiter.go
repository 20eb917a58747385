package ratelimiter

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Idle buckets are swept once every sweepEvery calls.
	sweepEvery     = 512
	defaultIdleTTL = 10 * time.Minute
)

// MapLimiter keeps one token bucket per caller key (for the RPC server, the
// client address) and sweeps buckets that have gone idle. A nil MapLimiter
// allows everything, so a disabled limiter needs no branching at call sites.
type MapLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	calls   uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New returns nil when rps or burst is not positive.
func New(rps float64, burst int, idleTTL time.Duration) *MapLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &MapLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		buckets: make(map[string]*bucket),
	}
}

// Allow consumes one token for key at now. Blank keys are never limited.
func (l *MapLimiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	l.calls++
	if l.calls%sweepEvery == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.buckets {
			if v.lastSeen.Before(cutoff) {
				delete(l.buckets, k)
			}
		}
	}
	return b.limiter.AllowN(now, 1)
}
