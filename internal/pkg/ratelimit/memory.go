package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process memory. Counters are not shared
// between processes and are lost on restart.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

type Option func(*MemoryLimiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *MemoryLimiter) {
		l.now = now
	}
}

func NewMemoryLimiter(opts ...Option) *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request for key. A missing or elapsed entry is replaced by
// a fresh window with count 1.
func (l *MemoryLimiter) Check(_ context.Context, key string, cfg Config) Result {
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return Result{Allowed: true}
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(cfg.Window)}
		l.entries[key] = e
		return Result{Allowed: true, Remaining: cfg.Limit - 1, ResetIn: cfg.Window}
	}

	if e.count >= cfg.Limit {
		return Result{Allowed: false, Remaining: 0, ResetIn: e.resetAt.Sub(now)}
	}

	e.count++
	return Result{Allowed: true, Remaining: cfg.Limit - e.count, ResetIn: e.resetAt.Sub(now)}
}

// Sweep drops every entry whose window has elapsed and returns how many were removed.
func (l *MemoryLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run sweeps every interval until ctx is done.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				log.Debugf("[RateLimit] swept %d expired entries", n)
			}
		}
	}
}
