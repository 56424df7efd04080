package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleAfter = 10 * time.Minute

type limiterKey struct {
	scope  string
	client string
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitManager holds one token bucket per scope and client. Buckets idle
// for longer than limiterIdleAfter are dropped by a background loop.
type RateLimitManager struct {
	mu       sync.Mutex
	limiters map[limiterKey]*limiterEntry

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRateLimitManager starts the cleanup loop; it stops when ctx ends or on
// Shutdown.
func NewRateLimitManager(ctx context.Context) *RateLimitManager {
	ctx, cancel := context.WithCancel(ctx)
	m := &RateLimitManager{
		limiters: make(map[limiterKey]*limiterEntry),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go m.cleanupLoop(ctx)
	return m
}

// Limiter returns the bucket of client within scope, creating it from limit.
// A limit without requests disables limiting and yields nil.
func (m *RateLimitManager) Limiter(scope, client string, limit RateLimit) *rate.Limiter {
	if limit.Requests <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := limiterKey{scope: scope, client: client}
	if entry, ok := m.limiters[key]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	window := limit.Window
	if window <= 0 {
		window = time.Minute
	}
	burst := max(limit.Burst, limit.Requests)

	limiter := rate.NewLimiter(rate.Limit(float64(limit.Requests)/window.Seconds()), burst)
	m.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (m *RateLimitManager) cleanupLoop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.cleanup(now)
		}
	}
}

func (m *RateLimitManager) cleanup(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleAfter {
			delete(m.limiters, key)
		}
	}
}

// Shutdown stops the cleanup loop and waits for it to exit.
func (m *RateLimitManager) Shutdown() error {
	m.cancel()
	<-m.done
	return nil
}
