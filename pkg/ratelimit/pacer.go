package ratelimit

import (
	"time"

	random "github.com/mazen160/go-random"
)

// Pacer spaces out page actions with a bounded random delay on top of a
// token bucket. Uniform delays between actions produce a detectable
// request-rate signature; the jitter breaks it up.
type Pacer struct {
	limiter  Limiter
	min, max time.Duration
	sleep    func(time.Duration)
}

// NewPacer creates a pacer with the given per-minute budget and random
// inter-action delay bounds.
func NewPacer(actionsPerMinute int, min, max time.Duration) *Pacer {
	return &Pacer{
		limiter: NewTokenBucket(actionsPerMinute, time.Minute),
		min:     min,
		max:     max,
		sleep:   time.Sleep,
	}
}

// Pause blocks for one randomized inter-action delay, then waits for the
// rate budget.
func (p *Pacer) Pause() {
	p.sleep(RandomDelay(p.min, p.max))
	p.limiter.Wait()
}

// RandomDelay returns a uniformly random duration in [min, max].
func RandomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	n, err := random.IntRange(int(min.Milliseconds()), int(max.Milliseconds())+1)
	if err != nil {
		return min
	}
	return time.Duration(n) * time.Millisecond
}
