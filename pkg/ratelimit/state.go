package ratelimit

import "time"

// State tracks rate-limit pressure across one scheduler run. It is owned
// exclusively by that run and never shared between concurrent runs, so no
// locking is required.
type State struct {
	consecutive   int
	cooldownUntil time.Time
}

// NewState returns a fresh state for a new run
func NewState() *State {
	return &State{}
}

// ConsecutiveRateLimits returns the number of rate-limited responses seen
// since the last successful fetch
func (s *State) ConsecutiveRateLimits() int {
	return s.consecutive
}

// RecordRateLimited increments the consecutive counter and returns the new count
func (s *State) RecordRateLimited() int {
	s.consecutive++
	return s.consecutive
}

// RecordSuccess resets the consecutive counter
func (s *State) RecordSuccess() {
	s.consecutive = 0
}

// SetCooldown establishes a deadline before which no network call should be
// issued. The deadline is never moved backwards.
func (s *State) SetCooldown(until time.Time) {
	if until.After(s.cooldownUntil) {
		s.cooldownUntil = until
	}
}

// CooldownRemaining returns how long an attempt must still wait before
// issuing a call, or zero when no cooldown is active. An expired deadline is
// simply in the past; there is no explicit clear step.
func (s *State) CooldownRemaining(now time.Time) time.Duration {
	if s.cooldownUntil.IsZero() || !s.cooldownUntil.After(now) {
		return 0
	}
	return s.cooldownUntil.Sub(now)
}
