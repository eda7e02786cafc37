// Package cursor persists per-dataset resume positions so an aborted or
// truncated run can pick up where it left off. Writes are atomic.
package cursor
