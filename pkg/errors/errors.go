package errors

import "fmt"

// Kind classifies the failures that can occur while fetching metrics
type Kind string

const (
	KindInvalidIdentifier  Kind = "invalid_identifier"
	KindRateLimited        Kind = "rate_limited"
	KindServiceUnavailable Kind = "service_unavailable"
	KindMalformedResponse  Kind = "malformed_response"
	KindNetworkFault       Kind = "network_fault"
	KindSkippedForRetry    Kind = "skipped_for_retry"
	KindAuth               Kind = "auth"
	KindUnknown            Kind = "unknown"
)

// Error represents an API error with kind information
type Error struct {
	Kind    Kind
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Kind, e.Code, e.Message)
}

// New creates an Error with the given kind, message and status code
func New(kind Kind, message string, code int) *Error {
	return &Error{Kind: kind, Message: message, Code: code}
}

// KindOf returns the kind carried by err, unwrapping as needed, or
// KindUnknown for foreign errors
func KindOf(err error) Kind {
	for err != nil {
		if apiErr, ok := err.(*Error); ok {
			return apiErr.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}

// IsRetryable checks if an error kind should be retried within an
// attempt loop. Unclassified errors are retried; only failures that
// cannot improve with another attempt are terminal.
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindInvalidIdentifier, KindSkippedForRetry, KindAuth:
		return false
	default:
		return true
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
