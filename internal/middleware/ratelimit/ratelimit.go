// Package ratelimit limits requests per client with a fixed one-minute window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	window = time.Minute
	// Windows idle for this long are forgotten on the next sweep.
	idleExpiry = 10 * time.Minute
)

type Config struct {
	RequestsPerMinute int
	// SweepInterval bounds how often Allow scans for idle clients.
	SweepInterval time.Duration
}

// Limiter counts requests per key. Idle keys are swept from inside Allow, so
// there is no background goroutine to stop.
type Limiter struct {
	limit int
	sweep time.Duration
	now   func() time.Time

	mu        sync.Mutex
	windows   map[string]*fixedWindow
	lastSweep time.Time
}

type fixedWindow struct {
	start time.Time
	seen  time.Time
	count int
}

func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	return &Limiter{
		limit:   cfg.RequestsPerMinute,
		sweep:   cfg.SweepInterval,
		now:     time.Now,
		windows: make(map[string]*fixedWindow),
	}
}

// Allow records a request from key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.lastSweep.IsZero() {
		l.lastSweep = now
	} else if now.Sub(l.lastSweep) >= l.sweep {
		l.sweepLocked(now)
	}

	w := l.windows[key]
	if w == nil || now.Sub(w.start) >= window {
		l.windows[key] = &fixedWindow{start: now, seen: now, count: 1}
		return true
	}
	w.count++
	w.seen = now
	return w.count <= l.limit
}

// RetryAfter is the number of whole seconds until key's window resets.
func (l *Limiter) RetryAfter(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[key]
	if w == nil {
		return 0
	}
	left := window - l.now().Sub(w.start)
	if left < time.Second {
		return 1
	}
	return int(left / time.Second)
}

func (l *Limiter) sweepLocked(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.seen) >= idleExpiry {
			delete(l.windows, key)
		}
	}
	l.lastSweep = now
}

// Tracked is the number of clients with a live window.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Middleware limits mutating requests per client key. With limitReads unset,
// GET, HEAD and OPTIONS are never counted. onLimit writes the rejection; nil
// means a plain 429.
func (l *Limiter) Middleware(keyOf func(*http.Request) string, limitReads bool, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if !limitReads {
					next.ServeHTTP(w, r)
					return
				}
			}
			key := keyOf(r)
			if l.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(l.RetryAfter(key)))
			onLimit(w, r)
		})
	}
}
