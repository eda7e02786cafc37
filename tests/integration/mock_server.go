package integration

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// reply is one scripted response for a post ID. A zero status means 200
// with the given view count.
type reply struct {
	status     int
	viewCount  int64
	retryAfter int   // Retry-After header, seconds, 0 = omit
	resetAt    int64 // X-RateLimit-Reset header, unix seconds, 0 = omit
	rawBody    string
}

func ok(viewCount int64) reply { return reply{status: http.StatusOK, viewCount: viewCount} }

func rateLimited(retryAfter int) reply {
	return reply{status: http.StatusTooManyRequests, retryAfter: retryAfter}
}

func unavailable() reply { return reply{status: http.StatusServiceUnavailable} }

// MockMetricsServer simulates the metrics API with per-post scripted
// response sequences.
type MockMetricsServer struct {
	server *httptest.Server
	token  string

	mu       sync.Mutex
	scripts  map[string][]reply
	requests []string // post IDs in call order
}

func NewMockMetricsServer(token string) *MockMetricsServer {
	m := &MockMetricsServer{
		token:   token,
		scripts: make(map[string][]reply),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handleMetrics))
	return m
}

func (m *MockMetricsServer) URL() string { return m.server.URL }

func (m *MockMetricsServer) Close() { m.server.Close() }

// Script queues the response sequence for a post ID. Once the sequence
// is exhausted, further requests repeat the last entry.
func (m *MockMetricsServer) Script(postID string, replies ...reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[postID] = replies
}

// Requests returns the post IDs requested so far, in order.
func (m *MockMetricsServer) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockMetricsServer) next(postID string) (reply, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, postID)

	script, ok := m.scripts[postID]
	if !ok || len(script) == 0 {
		return reply{}, false
	}
	r := script[0]
	if len(script) > 1 {
		m.scripts[postID] = script[1:]
	}
	return r, true
}

func (m *MockMetricsServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/posts/metrics" {
		http.NotFound(w, r)
		return
	}
	if m.token != "" && r.Header.Get("Authorization") != "Bearer "+m.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	postID := r.URL.Query().Get("post_id")
	rep, scripted := m.next(postID)
	if !scripted {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if rep.retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(rep.retryAfter))
	}
	if rep.resetAt > 0 {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rep.resetAt, 10))
	}

	if rep.rawBody != "" {
		w.WriteHeader(rep.status)
		fmt.Fprint(w, rep.rawBody)
		return
	}

	switch rep.status {
	case http.StatusOK:
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":[{"post_id":%q,"view_count":%d,"like_count":0}],"status":"ok"}`,
			postID, rep.viewCount)
	default:
		w.WriteHeader(rep.status)
	}
}
