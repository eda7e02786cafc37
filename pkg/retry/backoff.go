package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy defines the interface for computing retry delays
type BackoffStrategy interface {
	// NextDelay returns the delay to wait before the given attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// maxExponent caps 2^(attempt-1) so the float math cannot overflow for
// pathological attempt counts.
const maxExponent = 62

// Delay computes a jittered exponential backoff delay for the given attempt.
// The un-jittered base is initial * 2^(attempt-1); a multiplicative jitter
// drawn uniformly from [0.5, 1.0) of the base is applied, and the result is
// clamped to max. The returned value is always in [0, max].
func Delay(attempt int, initial, max time.Duration) time.Duration {
	if attempt <= 0 || initial <= 0 || max <= 0 {
		return 0
	}

	exp := attempt - 1
	if exp > maxExponent {
		exp = maxExponent
	}
	base := float64(initial) * math.Pow(2, float64(exp))

	// Jitter to avoid synchronized retry storms across items
	jittered := base * (0.5 + rand.Float64()/2)

	if jittered > float64(max) {
		return max
	}
	return time.Duration(jittered)
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	// BaseDelay is the initial delay duration
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration
	MaxDelay time.Duration
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay: 1 * time.Second,
		MaxDelay:  60 * time.Second,
	}
}

// NextDelay calculates the delay for the given attempt
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	return Delay(attempt, eb.BaseDelay, eb.MaxDelay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait waits for the specified duration or until context is cancelled
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
