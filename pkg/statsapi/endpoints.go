package statsapi

import (
	"fmt"
	"net/url"
)

const (
	// DefaultBaseURL is the base URL for the metrics API
	DefaultBaseURL = "https://api.postpulse.io"

	// MetricsEndpoint is the endpoint pattern for post metrics lookups
	MetricsEndpoint = "/v1/posts/metrics"
)

// MetricsURL constructs the URL for fetching metrics for one post
func MetricsURL(baseURL, postID string) string {
	params := url.Values{}
	params.Set("post_id", postID)

	return fmt.Sprintf("%s%s?%s", baseURL, MetricsEndpoint, params.Encode())
}
