// Package retry provides the backoff calculation used for transient failures
// in metrics API calls.
//
// Delays grow geometrically with the attempt number and carry a
// multiplicative jitter in [0.5, 1.0) of the un-jittered base, so retries of
// different work items do not synchronize into bursts. Results are always
// clamped to the configured maximum.
//
// Usage:
//
//	backoff := &retry.ExponentialBackoff{
//		BaseDelay: 1 * time.Second,
//		MaxDelay:  60 * time.Second,
//	}
//	delay := backoff.NextDelay(attempt)
//	if err := retry.Wait(ctx, delay); err != nil {
//		return err // context cancelled
//	}
package retry
