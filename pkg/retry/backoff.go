package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy decides how long to sleep before a given attempt.
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
	Reset()
}

// ExponentialBackoff grows the delay geometrically per attempt, capped
// at MaxDelay, with optional symmetric jitter.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor in [0,1] widens each delay by a random fraction of
	// itself in either direction.
	JitterFactor float64
}

// DefaultExponentialBackoff is tuned for navigation retries against a
// rate-limiting target: 1s, 2s, 4s... capped at a minute.
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	d := time.Duration(float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1)))
	// Overflow from large attempt counts lands negative.
	if d > eb.MaxDelay || d < 0 {
		d = eb.MaxDelay
	}

	if eb.JitterFactor > 0 {
		span := eb.JitterFactor * float64(d)
		d += time.Duration(span * (2*rand.Float64() - 1))
		if d < 0 {
			d = 0
		}
	}
	return d
}

func (eb *ExponentialBackoff) Reset() {}

// ConstantBackoff sleeps the same delay before every attempt. Tests use
// it to keep retries fast.
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return cb.Delay
}

func (cb *ConstantBackoff) Reset() {}

// Wait sleeps for delay unless the context is cancelled first.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
