package scheduler

import (
	"context"
	"fmt"
	"time"

	errs "viewledger/pkg/errors"
	"viewledger/pkg/fetcher"
	"viewledger/pkg/logger"
	"viewledger/pkg/ratelimit"
)

// RunState tracks where a run is in its lifecycle.
type RunState string

const (
	StateIdle               RunState = "idle"
	StateRunning            RunState = "running"
	StateCompleted          RunState = "completed"
	StateAbortedOnRateLimit RunState = "aborted_on_rate_limit"
)

// WorkItem is one sheet row to process. Position is the row's place in
// the source sheet, not its index in the run's slice.
type WorkItem struct {
	Position int
	RawText  string
}

// DeriveFunc turns a raw cell value into the post identifier the API
// expects. A failure here is terminal for the item but not for the run.
type DeriveFunc func(raw string) (string, error)

// FetchEngine is the per-item retry engine the scheduler drives.
type FetchEngine interface {
	Fetch(ctx context.Context, postID string, state *ratelimit.State) fetcher.Outcome
}

// ItemResult pairs an input item with its terminal outcome.
type ItemResult struct {
	Item    WorkItem
	Outcome fetcher.Outcome
}

// Summary aggregates a run's outcomes for reporting.
type Summary struct {
	Total            int
	Succeeded        int
	Failed           int
	RateLimited      int
	Skipped          int
	Duration         time.Duration
	FailuresByReason map[errs.Kind]int
}

// Result is everything a run produced. Items preserves input order with
// exactly one entry per input item. LastProcessedPosition is the
// position of the last item whose processing fully completed before any
// abort; 0 means no item completed.
type Result struct {
	Items                 []ItemResult
	State                 RunState
	LastProcessedPosition int
	Summary               Summary
}

// Config tunes batch shape and pacing.
type Config struct {
	BatchSize      int
	APICallDelay   time.Duration
	BatchDelay     time.Duration
	AbortThreshold int

	// Sleep and Now are injectable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Scheduler walks an ordered item list in contiguous batches, pacing
// API calls flatly and aborting the whole run once the shared
// rate-limit state crosses the abort threshold.
type Scheduler struct {
	engine FetchEngine
	derive DeriveFunc
	cfg    Config
	pacer  *ratelimit.Pacer
	log    logger.Logger

	// OnResult, when set, observes each terminal item result as it is
	// produced, before the run finishes. Used for incremental write-back.
	OnResult func(ItemResult)
}

func New(engine FetchEngine, derive DeriveFunc, cfg Config, log logger.Logger) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.AbortThreshold <= 0 {
		cfg.AbortThreshold = 3
	}
	if cfg.Sleep == nil {
		cfg.Sleep = func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Scheduler{
		engine: engine,
		derive: derive,
		cfg:    cfg,
		pacer:  ratelimit.NewPacer(cfg.APICallDelay),
		log:    log,
	}
}

// Run processes items in order. The returned Result always holds one
// outcome per input item, with skipped items marked explicitly.
func (s *Scheduler) Run(ctx context.Context, items []WorkItem) Result {
	started := s.cfg.Now()
	state := ratelimit.NewState()
	result := Result{
		State: StateRunning,
		Items: make([]ItemResult, 0, len(items)),
	}

	s.log.InfoWithFields("Run started", map[string]interface{}{
		"items":      len(items),
		"batch_size": s.cfg.BatchSize,
	})

	aborted := false
	for start := 0; start < len(items) && !aborted; start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}

		for i := start; i < end; i++ {
			item := items[i]
			outcome := s.processItem(ctx, item, state)
			s.emit(&result, item, outcome)

			if outcome.RateLimited && state.ConsecutiveRateLimits() >= s.cfg.AbortThreshold {
				s.log.WarnWithFields("Aborting run on rate limit", map[string]interface{}{
					"position":    item.Position,
					"consecutive": state.ConsecutiveRateLimits(),
				})
				s.skipRemaining(&result, items[i+1:], true)
				aborted = true
				break
			}

			// The aborting item above does not advance the resume point,
			// so a later run retries it.
			result.LastProcessedPosition = item.Position
		}

		if !aborted && end < len(items) && s.cfg.BatchDelay > 0 {
			if err := s.cfg.Sleep(ctx, s.cfg.BatchDelay); err != nil {
				s.skipRemaining(&result, items[end:], false)
				aborted = true
			}
		}
	}

	if aborted {
		result.State = StateAbortedOnRateLimit
	} else {
		result.State = StateCompleted
	}
	result.Summary = summarize(result.Items, s.cfg.Now().Sub(started))

	s.log.InfoWithFields("Run finished", map[string]interface{}{
		"state":     string(result.State),
		"succeeded": result.Summary.Succeeded,
		"failed":    result.Summary.Failed,
		"skipped":   result.Summary.Skipped,
	})
	return result
}

func (s *Scheduler) processItem(ctx context.Context, item WorkItem, state *ratelimit.State) fetcher.Outcome {
	postID, err := s.derive(item.RawText)
	if err != nil {
		return fetcher.Outcome{
			Reason: errs.KindInvalidIdentifier,
			Err:    errs.New(errs.KindInvalidIdentifier, fmt.Sprintf("row %d: %v", item.Position, err), 0),
		}
	}

	if err := s.pacer.Wait(ctx); err != nil {
		return fetcher.Outcome{Reason: errs.KindNetworkFault, Err: err}
	}

	outcome := s.engine.Fetch(ctx, postID, state)
	logger.LogFetch(s.log, postID, outcome.Value, outcome.Success, outcome.Err)
	return outcome
}

func (s *Scheduler) emit(result *Result, item WorkItem, outcome fetcher.Outcome) {
	ir := ItemResult{Item: item, Outcome: outcome}
	result.Items = append(result.Items, ir)
	if s.OnResult != nil {
		s.OnResult(ir)
	}
}

// skipRemaining tags the unprocessed tail. rateLimited is true only
// when the run stopped because the abort threshold was crossed, not
// for cancellations between batches.
func (s *Scheduler) skipRemaining(result *Result, remaining []WorkItem, rateLimited bool) {
	for _, item := range remaining {
		msg := fmt.Sprintf("row %d skipped after run interruption", item.Position)
		if rateLimited {
			msg = fmt.Sprintf("row %d skipped after rate limit abort", item.Position)
		}
		s.emit(result, item, fetcher.Outcome{
			Reason:      errs.KindSkippedForRetry,
			Err:         errs.New(errs.KindSkippedForRetry, msg, 0),
			RateLimited: rateLimited,
		})
	}
}

func summarize(items []ItemResult, elapsed time.Duration) Summary {
	summary := Summary{
		Total:            len(items),
		Duration:         elapsed,
		FailuresByReason: make(map[errs.Kind]int),
	}
	for _, ir := range items {
		switch {
		case ir.Outcome.Success:
			summary.Succeeded++
		case ir.Outcome.Reason == errs.KindSkippedForRetry:
			summary.Skipped++
			summary.FailuresByReason[ir.Outcome.Reason]++
		default:
			summary.Failed++
			summary.FailuresByReason[ir.Outcome.Reason]++
		}
		if ir.Outcome.RateLimited {
			summary.RateLimited++
		}
	}
	return summary
}
