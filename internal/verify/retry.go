package verify

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy is an explicit backoff policy: attempts, base delay, and
// jitter live here rather than inline in the check loop so the schedule
// can be tested in isolation.
type RetryPolicy struct {
	MaxAttempts int           `json:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay"`
	MaxDelay    time.Duration `json:"max_delay"`
	// Jitter is the fraction of the computed delay randomized away, in
	// [0,1]. Zero disables jitter, which keeps tests deterministic.
	Jitter float64 `json:"jitter"`
}

// DefaultRetryPolicy returns the standard verification backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.2,
	}
}

// Delay returns how long to wait before the given attempt (attempt 0 is
// the first try and never waits).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 || p.BaseDelay <= 0 {
		return 0
	}

	backoff := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if p.MaxDelay > 0 && backoff > float64(p.MaxDelay) {
		backoff = float64(p.MaxDelay)
	}

	if p.Jitter > 0 {
		spread := backoff * p.Jitter
		backoff = backoff - spread/2 + rand.Float64()*spread
	}

	return time.Duration(backoff)
}

// Do runs fn up to MaxAttempts times, sleeping per the schedule between
// tries. fn reports whether its failure is transient; definitive outcomes
// stop the loop immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func() (transient bool, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if delay := p.Delay(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		transient, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !transient {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return lastErr
}
