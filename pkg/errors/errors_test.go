package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(KindRateLimited, "rate limit exceeded", 429)
	assert.Equal(t, "rate_limited error (code 429): rate limit exceeded", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAuth, KindOf(New(KindAuth, "invalid token", 401)))
	assert.Equal(t, KindUnknown, KindOf(fmt.Errorf("plain error")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	inner := New(KindServiceUnavailable, "service unavailable", 503)
	wrapped := fmt.Errorf("fetching post: %w", inner)
	doubly := fmt.Errorf("run failed: %w", wrapped)

	assert.Equal(t, KindServiceUnavailable, KindOf(wrapped))
	assert.Equal(t, KindServiceUnavailable, KindOf(doubly))
}

func TestIsRetryable(t *testing.T) {
	retryable := []Kind{KindRateLimited, KindServiceUnavailable, KindMalformedResponse, KindNetworkFault, KindUnknown}
	for _, kind := range retryable {
		assert.True(t, IsRetryable(kind), "kind %s", kind)
	}

	terminal := []Kind{KindInvalidIdentifier, KindSkippedForRetry, KindAuth}
	for _, kind := range terminal {
		assert.False(t, IsRetryable(kind), "kind %s", kind)
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(503))
	assert.True(t, IsRetryableStatusCode(599))
	assert.False(t, IsRetryableStatusCode(401))
	assert.False(t, IsRetryableStatusCode(404))
	assert.False(t, IsRetryableStatusCode(418))
}
