// Package scheduler walks an ordered list of sheet rows in contiguous
// batches, driving the fetcher for each one. Output order matches input
// order and every item gets exactly one outcome: when a run aborts on
// rate limiting, the unprocessed tail is marked skipped rather than
// dropped, and the resume position points at the last item that fully
// completed before the abort.
package scheduler
