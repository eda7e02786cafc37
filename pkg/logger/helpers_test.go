package logger

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestLogRequestLevelByStatusClass(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "info"},
		{429, "warn"},
		{404, "warn"},
		{500, "error"},
		{503, "error"},
	}

	for _, tt := range tests {
		log := NewTestLogger()
		LogRequest(log, http.MethodGet, "https://api.example.com/v1/posts/metrics", tt.status, 20*time.Millisecond)

		entries := log.EntriesAt(tt.level)
		if len(entries) != 1 {
			t.Fatalf("status %d: want 1 %s entry, got %d", tt.status, tt.level, len(entries))
		}
		if entries[0].Fields["status_code"] != tt.status {
			t.Errorf("status %d: status_code field = %v", tt.status, entries[0].Fields["status_code"])
		}
	}
}

func TestLogFetch(t *testing.T) {
	log := NewTestLogger()
	LogFetch(log, "7012345", 152340, true, nil)

	entries := log.EntriesAt("info")
	if len(entries) != 1 {
		t.Fatalf("want 1 info entry, got %d", len(entries))
	}
	if entries[0].Fields["view_count"] != int64(152340) {
		t.Errorf("view_count field = %v", entries[0].Fields["view_count"])
	}

	LogFetch(log, "7012345", 0, false, errors.New("network error"))
	if len(log.EntriesAt("error")) != 1 {
		t.Error("failed fetch should log at error level")
	}
}

func TestLogRateLimit(t *testing.T) {
	log := NewTestLogger()
	LogRateLimit(log, "7012345", 7*time.Second, 2)

	entries := log.EntriesAt("warn")
	if len(entries) != 1 {
		t.Fatalf("want 1 warn entry, got %d", len(entries))
	}
	if entries[0].Fields["consecutive"] != 2 {
		t.Errorf("consecutive field = %v", entries[0].Fields["consecutive"])
	}
}

func TestLogRunProgress(t *testing.T) {
	log := NewTestLogger()
	LogRunProgress(log, "posts", 5, 20)

	entries := log.EntriesAt("info")
	if len(entries) != 1 {
		t.Fatalf("want 1 info entry, got %d", len(entries))
	}
	if entries[0].Fields["percentage"] != "25.0%" {
		t.Errorf("percentage field = %v", entries[0].Fields["percentage"])
	}
}
