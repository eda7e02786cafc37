package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a flat spacing between successive API calls within a run.
// This is burst avoidance, independent of retry backoff: the first call
// proceeds immediately and every later call starts at least the configured
// interval after the previous one.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given inter-call interval. A
// non-positive interval yields a pacer that never waits.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is allowed or the context is cancelled
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
