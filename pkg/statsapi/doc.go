// Package statsapi implements the HTTP client for the post-metrics API.
//
// The API exposes a single lookup: GET /v1/posts/metrics?post_id=<id>,
// authenticated with a bearer token, returning a JSON collection of records
// of which at least one should carry the view count for the requested post.
//
// The client performs exactly one attempt per call and maps every response
// class onto the shared error taxonomy; retry decisions belong to the
// fetcher. Rate-limited responses are returned as *RateLimitError so the
// caller can honor the Retry-After and X-RateLimit-Reset hints.
package statsapi
