// Package ratelimit holds the rate-limit bookkeeping shared across one
// scheduler run.
//
// State is the run-scoped record threaded through every fetch: it counts
// consecutive rate-limited responses (reset by any success) and carries the
// active cooldown deadline set after a 429. The deadline is only ever
// compared against the current time; once it is in the past it is inert.
//
// Pacer provides the flat inter-call spacing between work items, built on
// golang.org/x/time/rate. Pacing and cooldown are deliberately separate:
// pacing applies to every call, cooldown only after the API pushed back.
//
// Usage:
//
//	state := ratelimit.NewState()
//	pacer := ratelimit.NewPacer(500 * time.Millisecond)
//
//	for _, item := range items {
//		if err := pacer.Wait(ctx); err != nil {
//			return err
//		}
//		outcome := fetcher.Fetch(ctx, item.ID, state)
//		...
//	}
package ratelimit
