package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "viewledger/pkg/errors"
	"viewledger/pkg/logger"
	"viewledger/pkg/ratelimit"
	"viewledger/pkg/retry"
	"viewledger/pkg/statsapi"
)

// MetricsSource is the single upstream call the fetcher drives. The
// statsapi client satisfies it; tests substitute scripted fakes.
type MetricsSource interface {
	PostViewCount(ctx context.Context, postID string) (int64, error)
}

// Outcome is the terminal result of fetching one post's view count.
// Exactly one of Success or Err is meaningful.
type Outcome struct {
	Success     bool
	Value       int64
	Reason      errs.Kind
	Err         error
	RateLimited bool
	Attempts    int
}

// Config tunes the retry loop. Zero values fall back to defaults in New.
type Config struct {
	MaxRetries        int
	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration
	AbortThreshold    int

	// Backoff schedules waits for service-unavailable and transient
	// failures. Rate-limit waits follow server hints instead.
	Backoff retry.BackoffStrategy

	// Sleep and Now are injectable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Fetcher retrieves a single post's view count, retrying transient
// failures and honoring the shared rate-limit state across calls.
type Fetcher struct {
	source MetricsSource
	cfg    Config
	log    logger.Logger
}

func New(source MetricsSource, cfg Config, log logger.Logger) *Fetcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialRetryDelay <= 0 {
		cfg.InitialRetryDelay = time.Second
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = 60 * time.Second
	}
	if cfg.AbortThreshold <= 0 {
		cfg.AbortThreshold = 3
	}
	if cfg.Backoff == nil {
		cfg.Backoff = &retry.ExponentialBackoff{
			BaseDelay: cfg.InitialRetryDelay,
			MaxDelay:  cfg.MaxRetryDelay,
		}
	}
	if cfg.Sleep == nil {
		cfg.Sleep = retry.Wait
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Fetcher{source: source, cfg: cfg, log: log}
}

// Fetch retrieves the view count for postID. It never issues a network
// call when the shared state has already crossed the abort threshold,
// so a scheduler can keep calling it and rely on the fast-fail.
func (f *Fetcher) Fetch(ctx context.Context, postID string, state *ratelimit.State) Outcome {
	if state.ConsecutiveRateLimits() >= f.cfg.AbortThreshold {
		return Outcome{
			Reason:      errs.KindRateLimited,
			Err:         errs.New(errs.KindRateLimited, fmt.Sprintf("rate limit threshold reached before fetching post %s", postID), 0),
			RateLimited: true,
		}
	}

	var lastErr error
	var lastKind errs.Kind

	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		// An active cooldown gates every attempt, including the first.
		// Waiting it out is a precondition, not an attempt of its own.
		if remaining := state.CooldownRemaining(f.cfg.Now()); remaining > 0 {
			f.log.DebugWithFields("Waiting out rate limit cooldown", map[string]interface{}{
				"post_id": postID,
				"wait":    remaining.String(),
			})
			if err := f.cfg.Sleep(ctx, remaining); err != nil {
				return Outcome{
					Reason:      errs.KindRateLimited,
					Err:         err,
					RateLimited: true,
					Attempts:    attempt - 1,
				}
			}
		}

		value, err := f.source.PostViewCount(ctx, postID)
		if err == nil {
			state.RecordSuccess()
			return Outcome{Success: true, Value: value, Attempts: attempt}
		}

		lastErr = err
		lastKind = errs.KindOf(err)

		switch {
		case lastKind == errs.KindRateLimited:
			count := state.RecordRateLimited()
			wait := f.rateLimitWait(err, count)
			state.SetCooldown(f.cfg.Now().Add(wait))
			// Reaching the threshold exactly still allows this item to
			// finish its remaining attempts; only exceeding it aborts
			// mid-item. A fresh Fetch call at the threshold fast-fails
			// via the pre-check above.
			if count > f.cfg.AbortThreshold {
				f.log.WarnWithFields("Rate limit threshold reached", map[string]interface{}{
					"post_id":     postID,
					"consecutive": count,
				})
				return Outcome{
					Reason:      errs.KindRateLimited,
					Err:         lastErr,
					RateLimited: true,
					Attempts:    attempt,
				}
			}
			logger.LogRateLimit(f.log, postID, wait, count)

		case errs.IsRetryable(lastKind):
			if attempt == f.cfg.MaxRetries {
				break
			}
			delay := f.cfg.Backoff.NextDelay(attempt)
			f.log.DebugWithFields("Transient failure, retrying", map[string]interface{}{
				"post_id": postID,
				"reason":  string(lastKind),
				"attempt": attempt,
				"delay":   delay.String(),
			})
			if err := f.cfg.Sleep(ctx, delay); err != nil {
				return Outcome{Reason: lastKind, Err: lastErr, Attempts: attempt}
			}

		default:
			// Auth failures and invalid identifiers will not improve
			// with another attempt.
			return Outcome{Reason: lastKind, Err: lastErr, Attempts: attempt}
		}
	}

	return Outcome{
		Reason:      lastKind,
		Err:         lastErr,
		RateLimited: state.ConsecutiveRateLimits() > 0,
		Attempts:    f.cfg.MaxRetries,
	}
}

// rateLimitWait picks the wait after a 429. Server hints win: an explicit
// Retry-After first, then the reset timestamp, and only then a local
// exponential seed keyed on the consecutive-429 count.
func (f *Fetcher) rateLimitWait(err error, consecutive int) time.Duration {
	var wait time.Duration
	hinted := false

	var rle *statsapi.RateLimitError
	if errors.As(err, &rle) {
		switch {
		case rle.RetryAfter > 0:
			wait = rle.RetryAfter
			hinted = true
		case !rle.ResetAt.IsZero():
			wait = rle.ResetAt.Sub(f.cfg.Now())
			if wait < 0 {
				wait = 0
			}
			hinted = true
		}
	}

	if !hinted {
		wait = f.cfg.InitialRetryDelay
		for i := 0; i < consecutive; i++ {
			wait *= 2
			if wait >= f.cfg.MaxRetryDelay {
				break
			}
		}
	}

	if wait > f.cfg.MaxRetryDelay {
		wait = f.cfg.MaxRetryDelay
	}
	return wait
}
