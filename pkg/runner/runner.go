package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"viewledger/pkg/auth"
	"viewledger/pkg/config"
	"viewledger/pkg/cursor"
	errs "viewledger/pkg/errors"
	"viewledger/pkg/extract"
	"viewledger/pkg/fetcher"
	"viewledger/pkg/logger"
	"viewledger/pkg/scheduler"
	"viewledger/pkg/sheet"
	"viewledger/pkg/statsapi"
)

// sheetSource and cursorStore are the collaborator seams; production
// code uses sheet.File and cursor.Store.
type sheetSource interface {
	ReadColumn(column string, startRow int) ([]sheet.Cell, error)
	WriteCount(position int, column string, count int64) error
	Path() string
}

type cursorStore interface {
	Read(datasetKey string) (*cursor.Cursor, error)
	Write(c *cursor.Cursor) error
	Clear(datasetKey string) error
}

// Report is what one sync run produced.
type Report struct {
	DatasetKey  string
	State       scheduler.RunState
	Summary     scheduler.Summary
	Eligible    int
	Truncated   bool
	ResumedFrom int
	WriteErrors int
}

// Runner wires the sheet, cursor store, and scheduler into one
// resumable sync run.
type Runner struct {
	cfg     *config.Config
	sheet   sheetSource
	cursors cursorStore
	sched   *scheduler.Scheduler
	log     logger.Logger
}

// New builds a runner from config. The API token comes from config or,
// when absent there, from the stored credential for the default profile.
func New(cfg *config.Config, log logger.Logger) (*Runner, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	token := cfg.API.Token
	if token == "" {
		mgr, err := auth.NewManager()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize token store: %w", err)
		}
		cred, err := mgr.Retrieve(auth.DefaultProfile)
		if err != nil {
			return nil, errs.New(errs.KindAuth, "no API token configured; run 'viewledger auth login' or set VIEWLEDGER_API_TOKEN", 0)
		}
		token = cred.Token
	}

	client := statsapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, token, log)
	engine := fetcher.New(client, fetcher.Config{
		MaxRetries:        cfg.RateLimit.MaxRetries,
		InitialRetryDelay: cfg.RateLimit.InitialRetryDelay,
		MaxRetryDelay:     cfg.RateLimit.MaxRetryDelay,
		AbortThreshold:    cfg.RateLimit.AbortThreshold,
	}, log)

	sched := scheduler.New(engine, extract.PostID, scheduler.Config{
		BatchSize:      cfg.Batch.Size,
		APICallDelay:   cfg.Batch.APICallDelay,
		BatchDelay:     cfg.Batch.BatchDelay,
		AbortThreshold: cfg.RateLimit.AbortThreshold,
	}, log)

	cursors, err := cursor.NewStore(cfg.Sheet.CursorDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor store: %w", err)
	}

	return &Runner{
		cfg:     cfg,
		sheet:   sheet.Open(cfg.Sheet.Path),
		cursors: cursors,
		sched:   sched,
		log:     log,
	}, nil
}

// DatasetKey derives a stable cursor key from a sheet path.
func DatasetKey(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "sheet"
	}
	return b.String()
}

// Run executes one sync pass. Setup faults (unreadable sheet, corrupt
// cursor) are fatal and returned; per-item failures are not.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	key := DatasetKey(r.sheet.Path())

	cells, err := r.sheet.ReadColumn(r.cfg.Sheet.URLColumn, r.cfg.Sheet.StartRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	// Rows that already carry a count are done; re-running a completed
	// sheet is a no-op even after the cursor is cleared.
	filled, err := r.sheet.ReadColumn(r.cfg.Sheet.OutputColumn, r.cfg.Sheet.StartRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read output column: %w", err)
	}
	done := make(map[int]bool, len(filled))
	for _, cell := range filled {
		done[cell.Position] = true
	}

	cur, err := r.cursors.Read(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume cursor: %w", err)
	}

	resumedFrom := 0
	if cur != nil {
		resumedFrom = cur.LastProcessedPosition
	}

	items := make([]scheduler.WorkItem, 0, len(cells))
	for _, cell := range cells {
		if cell.Position <= resumedFrom || done[cell.Position] {
			continue
		}
		items = append(items, scheduler.WorkItem{Position: cell.Position, RawText: cell.Text})
	}

	eligible := len(items)
	truncated := false
	if limit := r.cfg.Batch.MaxItemsPerRun; limit > 0 && len(items) > limit {
		items = items[:limit]
		truncated = true
	}

	r.log.InfoWithFields("Sync run starting", map[string]interface{}{
		"dataset":      key,
		"eligible":     eligible,
		"attempting":   len(items),
		"resumed_from": resumedFrom,
	})

	writeErrors := 0
	r.sched.OnResult = func(ir scheduler.ItemResult) {
		if !ir.Outcome.Success {
			return
		}
		if err := r.sheet.WriteCount(ir.Item.Position, r.cfg.Sheet.OutputColumn, ir.Outcome.Value); err != nil {
			writeErrors++
			r.log.ErrorWithFields("Failed to write view count", map[string]interface{}{
				"row":   ir.Item.Position,
				"error": err.Error(),
			})
		}
	}

	result := r.sched.Run(ctx, items)
	logger.LogRunProgress(r.log, key, result.Summary.Total, eligible)

	// Persist where to pick up. Full completion of everything eligible
	// clears the cursor; an abort or a truncated run records the last
	// position that fully completed so the next run resumes after it.
	finished := result.State == scheduler.StateCompleted && !truncated
	if finished {
		if err := r.cursors.Clear(key); err != nil {
			return nil, fmt.Errorf("failed to clear resume cursor: %w", err)
		}
	} else if result.LastProcessedPosition > 0 {
		total := result.Summary.Succeeded + result.Summary.Failed
		if cur != nil {
			total += cur.TotalProcessed
		}
		if err := r.cursors.Write(&cursor.Cursor{
			DatasetKey:            key,
			LastProcessedPosition: result.LastProcessedPosition,
			TotalProcessed:        total,
		}); err != nil {
			return nil, fmt.Errorf("failed to write resume cursor: %w", err)
		}
	}

	report := &Report{
		DatasetKey:  key,
		State:       result.State,
		Summary:     result.Summary,
		Eligible:    eligible,
		Truncated:   truncated,
		ResumedFrom: resumedFrom,
		WriteErrors: writeErrors,
	}

	r.log.InfoWithFields("Sync run finished", map[string]interface{}{
		"dataset":   key,
		"state":     string(result.State),
		"succeeded": result.Summary.Succeeded,
		"failed":    result.Summary.Failed,
		"skipped":   result.Summary.Skipped,
		"duration":  time.Since(started).String(),
	})
	return report, nil
}
