package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewledger/pkg/config"
	errs "viewledger/pkg/errors"
	"viewledger/pkg/extract"
	"viewledger/pkg/fetcher"
	"viewledger/pkg/logger"
	"viewledger/pkg/runner"
	"viewledger/pkg/scheduler"
	"viewledger/pkg/sheet"
	"viewledger/pkg/statsapi"
)

const testToken = "integration-test-token"

func postID(i int) string {
	return fmt.Sprintf("71000000%02d", i)
}

func postURL(i int) string {
	return fmt.Sprintf("https://www.tiktok.com/@creator/video/%s", postID(i))
}

// newPipeline wires the real client, fetcher, and scheduler against the
// mock server with delays shrunk to keep the tests fast.
func newPipeline(server *MockMetricsServer, batchSize, maxRetries, threshold int) *scheduler.Scheduler {
	log := logger.NewNopLogger()
	client := statsapi.NewClient(server.URL(), 5*time.Second, testToken, log)
	engine := fetcher.New(client, fetcher.Config{
		MaxRetries:        maxRetries,
		InitialRetryDelay: time.Millisecond,
		MaxRetryDelay:     5 * time.Millisecond,
		AbortThreshold:    threshold,
	}, log)
	return scheduler.New(engine, extract.PostID, scheduler.Config{
		BatchSize:      batchSize,
		AbortThreshold: threshold,
	}, log)
}

func makeItems(n int) []scheduler.WorkItem {
	items := make([]scheduler.WorkItem, n)
	for i := range items {
		items[i] = scheduler.WorkItem{Position: i + 2, RawText: postURL(i + 1)}
	}
	return items
}

func TestAllItemsSucceedInOrder(t *testing.T) {
	server := NewMockMetricsServer(testToken)
	defer server.Close()
	for i := 1; i <= 7; i++ {
		server.Script(postID(i), ok(int64(i*1000)))
	}

	sched := newPipeline(server, 3, 3, 2)
	result := sched.Run(context.Background(), makeItems(7))

	assert.Equal(t, scheduler.StateCompleted, result.State)
	require.Len(t, result.Items, 7)
	for i, ir := range result.Items {
		assert.Equal(t, i+2, ir.Item.Position)
		require.True(t, ir.Outcome.Success)
		assert.Equal(t, int64((i+1)*1000), ir.Outcome.Value)
	}
	assert.Equal(t, 8, result.LastProcessedPosition)
}

func TestItemRecoversWithinRetryBudget(t *testing.T) {
	server := NewMockMetricsServer(testToken)
	defer server.Close()
	for i := 1; i <= 7; i++ {
		if i == 4 {
			server.Script(postID(i), rateLimited(0), rateLimited(0), ok(4000))
			continue
		}
		server.Script(postID(i), ok(int64(i*1000)))
	}

	sched := newPipeline(server, 3, 3, 2)
	result := sched.Run(context.Background(), makeItems(7))

	assert.Equal(t, scheduler.StateCompleted, result.State)
	require.Len(t, result.Items, 7)
	assert.True(t, result.Items[3].Outcome.Success, "item 4 recovers on its third attempt")
	assert.Equal(t, int64(4000), result.Items[3].Outcome.Value)
	assert.Equal(t, 7, result.Summary.Succeeded, "all seven items attempted")
}

func TestAbortMidRunSkipsRemainderAndSetsResumePoint(t *testing.T) {
	server := NewMockMetricsServer(testToken)
	defer server.Close()
	server.Script(postID(1), ok(100))
	server.Script(postID(2), ok(200))
	server.Script(postID(3), rateLimited(0)) // repeats until attempts stop

	sched := newPipeline(server, 3, 3, 2)
	result := sched.Run(context.Background(), makeItems(5))

	assert.Equal(t, scheduler.StateAbortedOnRateLimit, result.State)
	require.Len(t, result.Items, 5)
	assert.Equal(t, errs.KindRateLimited, result.Items[2].Outcome.Reason)
	assert.Equal(t, errs.KindSkippedForRetry, result.Items[3].Outcome.Reason)
	assert.Equal(t, errs.KindSkippedForRetry, result.Items[4].Outcome.Reason)
	assert.Equal(t, 3, result.LastProcessedPosition, "resume after item 2's row")

	for _, id := range server.Requests() {
		assert.NotContains(t, []string{postID(4), postID(5)}, id, "skipped items never hit the API")
	}
}

func TestInvalidIdentifierIsIsolated(t *testing.T) {
	server := NewMockMetricsServer(testToken)
	defer server.Close()
	server.Script(postID(1), ok(100))
	server.Script(postID(3), ok(300))

	items := makeItems(3)
	items[1].RawText = "not a post url"

	sched := newPipeline(server, 3, 3, 2)
	result := sched.Run(context.Background(), items)

	assert.Equal(t, scheduler.StateCompleted, result.State)
	assert.True(t, result.Items[0].Outcome.Success)
	assert.Equal(t, errs.KindInvalidIdentifier, result.Items[1].Outcome.Reason)
	assert.True(t, result.Items[2].Outcome.Success)
	assert.Equal(t, []string{postID(1), postID(3)}, server.Requests())
}

func writeSheet(t *testing.T, n int) string {
	t.Helper()
	content := "URL,Views\n"
	for i := 1; i <= n; i++ {
		content += postURL(i) + ",\n"
	}
	path := filepath.Join(t.TempDir(), "posts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runnerConfig(serverURL, sheetPath, cursorDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = serverURL
	cfg.API.Token = testToken
	cfg.Sheet.Path = sheetPath
	cfg.Sheet.CursorDir = cursorDir
	cfg.Batch.Size = 3
	cfg.Batch.APICallDelay = 0
	cfg.Batch.BatchDelay = 0
	cfg.RateLimit.MaxRetries = 3
	cfg.RateLimit.InitialRetryDelay = time.Millisecond
	cfg.RateLimit.MaxRetryDelay = 5 * time.Millisecond
	cfg.RateLimit.AbortThreshold = 2
	return cfg
}

func TestRunnerAbortsThenResumesToCompletion(t *testing.T) {
	server := NewMockMetricsServer(testToken)
	defer server.Close()
	server.Script(postID(1), ok(1234567))
	server.Script(postID(2), ok(200))
	server.Script(postID(3), rateLimited(0))

	sheetPath := writeSheet(t, 5)
	cursorDir := t.TempDir()
	cfg := runnerConfig(server.URL(), sheetPath, cursorDir)

	r, err := runner.New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scheduler.StateAbortedOnRateLimit, report.State)
	assert.Equal(t, 2, report.Summary.Succeeded)

	// Successful rows were written before the abort, with separators.
	data, err := os.ReadFile(sheetPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"1,234,567"`)
	assert.Contains(t, string(data), "200")

	// Second run: the server has recovered. Only rows after the resume
	// point are attempted.
	server.Script(postID(3), ok(300))
	server.Script(postID(4), ok(400))
	server.Script(postID(5), ok(500))
	before := len(server.Requests())

	r2, err := runner.New(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	report2, err := r2.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, scheduler.StateCompleted, report2.State)
	assert.Equal(t, 3, report2.Summary.Succeeded)
	assert.Equal(t, 3, report2.ResumedFrom)
	requested := server.Requests()[before:]
	assert.NotContains(t, requested, postID(1), "already-processed rows are filtered out")
	assert.NotContains(t, requested, postID(2))

	out := sheet.Open(sheetPath)
	cells, err := out.ReadColumn("B", 2)
	require.NoError(t, err)
	assert.Len(t, cells, 5, "every row ends up with a count")
}

func TestRunnerFullCompletionClearsCursor(t *testing.T) {
	server := NewMockMetricsServer(testToken)
	defer server.Close()
	for i := 1; i <= 3; i++ {
		server.Script(postID(i), ok(int64(i)))
	}

	sheetPath := writeSheet(t, 3)
	cursorDir := t.TempDir()
	cfg := runnerConfig(server.URL(), sheetPath, cursorDir)

	r, err := runner.New(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, scheduler.StateCompleted, report.State)

	entries, err := os.ReadDir(cursorDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "cursor cleared after full completion")

	// Every row now carries a count, so a second run finds nothing
	// eligible and never touches the API.
	before := len(server.Requests())
	r2, err := runner.New(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	report2, err := r2.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, scheduler.StateCompleted, report2.State)
	assert.Equal(t, 0, report2.Summary.Total)
	assert.Len(t, server.Requests(), before)
}

func TestRunnerServiceUnavailableRetriedTransparently(t *testing.T) {
	server := NewMockMetricsServer(testToken)
	defer server.Close()
	server.Script(postID(1), unavailable(), ok(111))

	sheetPath := writeSheet(t, 1)
	cfg := runnerConfig(server.URL(), sheetPath, t.TempDir())

	r, err := runner.New(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, scheduler.StateCompleted, report.State)
	assert.Equal(t, 1, report.Summary.Succeeded)
}
