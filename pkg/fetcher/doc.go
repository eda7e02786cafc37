// Package fetcher implements the per-post retry engine. It wraps a
// MetricsSource in a bounded retry loop: transient failures back off
// exponentially, 429 responses honor server wait hints and feed the
// shared rate-limit state, and crossing the abort threshold makes
// every subsequent Fetch fail fast without touching the network.
package fetcher
