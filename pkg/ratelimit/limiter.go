package ratelimit

import (
	"sync"
	"time"
)

// Limiter gates social actions against a fixed budget.
type Limiter interface {
	// Allow reports whether another action fits the current budget.
	Allow() bool
	// Wait blocks until the budget admits another action.
	Wait()
	// Reset restores the full budget immediately.
	Reset()
}

// TokenBucket admits up to capacity actions per refill period. The
// whole budget renews at once when the period elapses; the platform
// rate limits we pace against behave the same way, so there is no
// point smoothing the refill.
type TokenBucket struct {
	mu          sync.Mutex
	capacity    int
	remaining   int
	period      time.Duration
	windowStart time.Time
}

func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:    capacity,
		remaining:   capacity,
		period:      refillPeriod,
		windowStart: time.Now(),
	}
}

// Allow consumes one token when available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if since := time.Since(tb.windowStart); since >= tb.period {
		tb.remaining = tb.capacity
		tb.windowStart = time.Now()
	}
	if tb.remaining == 0 {
		return false
	}
	tb.remaining--
	return true
}

// Wait sleeps out the remainder of the window until a token frees up.
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		remaining := tb.period - time.Since(tb.windowStart)
		tb.mu.Unlock()

		if remaining <= 0 {
			remaining = 50 * time.Millisecond
		}
		time.Sleep(remaining)
	}
}

// Reset restores the full budget and restarts the window.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.remaining = tb.capacity
	tb.windowStart = time.Now()
}
