package musiclink

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCallDelay is the pause after every provider call.
const DefaultCallDelay = 2 * time.Second

// Throttle is invoked after every network call, successful or not.
type Throttle interface {
	Pause(ctx context.Context) error
}

// FixedDelay sleeps for a constant interval after each call.
type FixedDelay struct {
	delay time.Duration
}

func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay}
}

// Pause blocks for the configured delay or until ctx is done.
func (f *FixedDelay) Pause(ctx context.Context) error {
	if f.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenBucket spaces calls with a token bucket instead of an unconditional sleep.
// Consecutive calls still end up at least one interval apart, but time spent in the
// request itself counts towards the interval.
type TokenBucket struct {
	limiter *rate.Limiter
}

func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

// Pause waits until the bucket allows the next call.
func (t *TokenBucket) Pause(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// NoDelay never waits.
type NoDelay struct{}

func (NoDelay) Pause(ctx context.Context) error { return ctx.Err() }

// NewThrottle builds the throttle named by mode ("fixed" or "token-bucket").
// Unknown modes fall back to a fixed delay.
func NewThrottle(mode string, interval time.Duration) Throttle {
	if mode == ThrottleTokenBucket {
		return NewTokenBucket(interval, 1)
	}
	return NewFixedDelay(interval)
}

// Throttle modes accepted by NewThrottle and the rate limit configuration.
const (
	ThrottleFixed       = "fixed"
	ThrottleTokenBucket = "token-bucket"
)
