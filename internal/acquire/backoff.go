package acquire

import (
	"context"
	"time"
)

// backoffDelay calculates base*2^attempt with jitter, capped at max.
// Pure: the caller supplies the randomness source.
func backoffDelay(base, max time.Duration, attempt int, jitterFactor float64, rnd func() float64) time.Duration {
	delay := base << min(attempt, 6) // cap the shift to prevent overflow
	if delay > max {
		delay = max
	}
	jitter := float64(delay) * jitterFactor * (rnd() - 0.5)
	return time.Duration(float64(delay) + jitter)
}

// Sleeper abstracts backoff waits so the retry loop is testable
// without real delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
