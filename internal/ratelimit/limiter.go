// Package ratelimit implements per-client token bucket admission control.
// A bucket is created lazily for each client identity and refilled at a
// fixed per-minute rate up to a burst cap; buckets idle for longer than
// the eviction window are dropped to keep the table bounded.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBurst derives the lenient burst capacity from the per-minute limit.
func DefaultBurst(perMinute int) int {
	b := perMinute / 2
	if b < 5 {
		b = 5
	}
	return b
}

// Config holds limiter configuration.
type Config struct {
	// PerMinute is the sustained admission rate per client identity.
	PerMinute int `mapstructure:"per_minute"`
	// Burst caps accumulated tokens; 0 means DefaultBurst(PerMinute).
	Burst int `mapstructure:"burst"`
	// IdleEviction drops buckets unseen for this long; 0 means 10 minutes.
	IdleEviction time.Duration `mapstructure:"idle_eviction"`
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter manages one token bucket per client identity.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	perMin := cfg.PerMinute
	if perMin <= 0 {
		perMin = 60
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultBurst(perMin)
	}
	idle := cfg.IdleEviction
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMin) / 60.0),
		burst:   burst,
		idleTTL: idle,
		now:     time.Now,
	}
}

// Allow consumes one token from clientID's bucket and reports whether the
// request is admitted. A rejected request consumes nothing.
func (l *Limiter) Allow(clientID string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictIdleLocked(now)

	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[clientID] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Len reports the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) evictIdleLocked(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, id)
		}
	}
}

// ClientID derives the rate limiting identity for a request: the first
// X-Forwarded-For value, else the connection peer host, else a shared
// "unknown" bucket.
func ClientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
