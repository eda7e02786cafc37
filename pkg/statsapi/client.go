package statsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	errs "viewledger/pkg/errors"
	"viewledger/pkg/logger"
)

// RateLimitError is returned for 429 responses. It carries whatever wait
// hints the API attached to the response.
type RateLimitError struct {
	Err *errs.Error
	// RetryAfter is the Retry-After header converted to a duration, zero
	// when the header was absent or unparsable
	RetryAfter time.Duration
	// ResetAt is the X-RateLimit-Reset header (unix seconds) as a time,
	// zero when absent
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Client is an HTTP client for the metrics API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a new metrics API client
func NewClient(baseURL string, timeout time.Duration, token string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		token:   token,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "viewledger/1.0",
		},
		logger: log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// PostViewCount fetches the view count for one post ID.
//
// Error kinds returned: *RateLimitError (429, wrapping KindRateLimited),
// KindServiceUnavailable (503), KindAuth (401/403), KindNetworkFault
// (transport errors, unreadable body), KindMalformedResponse (undecodable
// body, or a well-formed body with no record for the requested post), and
// KindUnknown for any other status.
func (c *Client) PostViewCount(ctx context.Context, postID string) (int64, error) {
	url := MetricsURL(c.baseURL, postID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errs.New(errs.KindUnknown, fmt.Sprintf("failed to create request: %v", err), 0)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending metrics request", map[string]interface{}{
		"post_id": postID,
		"url":     url,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("metrics request failed", map[string]interface{}{
			"post_id":  postID,
			"error":    err.Error(),
			"duration": duration,
		})
		return 0, errs.New(errs.KindNetworkFault, fmt.Sprintf("network error: %v", err), 0)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, http.MethodGet, url, resp.StatusCode, duration)

	if err := c.checkResponseStatus(resp); err != nil {
		return 0, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, errs.New(errs.KindNetworkFault,
			fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode)
	}

	var result MetricsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse metrics response", map[string]interface{}{
			"post_id":      postID,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return 0, errs.New(errs.KindMalformedResponse,
			fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode)
	}

	// A well-formed body with no record for the requested post is a
	// recoverable error, not a success.
	for _, record := range result.Data {
		if record.PostID == postID {
			if record.ViewCount < 0 {
				return 0, errs.New(errs.KindMalformedResponse,
					fmt.Sprintf("negative view count %d for post %s", record.ViewCount, postID),
					resp.StatusCode)
			}
			return record.ViewCount, nil
		}
	}

	return 0, errs.New(errs.KindMalformedResponse,
		fmt.Sprintf("no metrics record for post %s", postID), resp.StatusCode)
}

// checkResponseStatus maps non-success statuses onto the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusTooManyRequests:
		rle := &RateLimitError{
			Err: errs.New(errs.KindRateLimited, "rate limit exceeded", resp.StatusCode),
		}
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				rle.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
			if unix, err := strconv.ParseInt(reset, 10, 64); err == nil && unix > 0 {
				rle.ResetAt = time.Unix(unix, 0)
			}
		}
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status":      resp.StatusCode,
			"retry_after": rle.RetryAfter,
			"url":         resp.Request.URL.String(),
		})
		return rle
	case http.StatusServiceUnavailable:
		c.logger.WarnWithFields("service unavailable", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.KindServiceUnavailable, "service unavailable", resp.StatusCode)
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.KindAuth, "authentication required", resp.StatusCode)
	default:
		// Other 5xx statuses are transient server faults; anything left
		// is unclassified and still retried upstream.
		if errs.IsRetryableStatusCode(resp.StatusCode) {
			c.logger.WarnWithFields("transient server error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return errs.New(errs.KindServiceUnavailable,
				fmt.Sprintf("server error: %d", resp.StatusCode), resp.StatusCode)
		}
		c.logger.ErrorWithFields("unexpected API status", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.KindUnknown,
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode), resp.StatusCode)
	}
}
