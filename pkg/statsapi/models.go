package statsapi

// MetricsResponse represents the top-level response from the metrics API
type MetricsResponse struct {
	Data   []PostMetrics `json:"data"`
	Status string        `json:"status"`
}

// PostMetrics represents the metrics record for a single post
type PostMetrics struct {
	PostID    string `json:"post_id"`
	ViewCount int64  `json:"view_count"`
	LikeCount int64  `json:"like_count"`
}
