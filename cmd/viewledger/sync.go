package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"viewledger/pkg/config"
	"viewledger/pkg/logger"
	"viewledger/pkg/runner"
	"viewledger/pkg/scheduler"
)

var (
	syncSheet          string
	syncURLColumn      string
	syncOutputColumn   string
	syncStartRow       int
	syncBatchSize      int
	syncMaxItems       int
	syncMaxRetries     int
	syncAbortThreshold int
	syncBaseURL        string
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [sheet.csv]",
	Short: "Fetch view counts and write them into the sheet",
	Long: `Scan the configured URL column, fetch the view count for every post
that the resume cursor has not covered yet, and write each count into
the output column as soon as it arrives.

A run that aborts on rate limiting, or hits the per-run item cap,
records its stopping position; the next sync resumes after it.`,
	Example: `  # Sync the sheet named in the config file
  viewledger sync

  # Sync a specific sheet with a smaller batch
  viewledger sync posts.csv --batch-size 5`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncURLColumn, "url-column", "", "column holding post URLs (default A)")
	syncCmd.Flags().StringVar(&syncOutputColumn, "output-column", "", "column to write view counts into (default B)")
	syncCmd.Flags().IntVar(&syncStartRow, "start-row", 0, "first data row, 1-based (default 2)")
	syncCmd.Flags().IntVar(&syncBatchSize, "batch-size", 0, "items per batch")
	syncCmd.Flags().IntVar(&syncMaxItems, "max-items", 0, "cap on items attempted this run")
	syncCmd.Flags().IntVar(&syncMaxRetries, "max-retries", 0, "attempts per item")
	syncCmd.Flags().IntVar(&syncAbortThreshold, "abort-threshold", 0, "consecutive rate limits before aborting the run")
	syncCmd.Flags().StringVar(&syncBaseURL, "api-base-url", "", "metrics API base URL")
}

func runSync(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if len(args) == 1 {
		flags["sheet"] = args[0]
	}
	if syncURLColumn != "" {
		flags["url-column"] = syncURLColumn
	}
	if syncOutputColumn != "" {
		flags["output-column"] = syncOutputColumn
	}
	if syncStartRow > 0 {
		flags["start-row"] = syncStartRow
	}
	if syncBatchSize > 0 {
		flags["batch-size"] = syncBatchSize
	}
	if syncMaxItems > 0 {
		flags["max-items"] = syncMaxItems
	}
	if syncMaxRetries > 0 {
		flags["max-retries"] = syncMaxRetries
	}
	if syncAbortThreshold > 0 {
		flags["abort-threshold"] = syncAbortThreshold
	}
	if syncBaseURL != "" {
		flags["api-base-url"] = syncBaseURL
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logging:", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	r, err := runner.New(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize:", err)
		os.Exit(1)
	}

	report, err := r.Run(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Sync failed:", err)
		os.Exit(1)
	}

	printReport(report)
	if report.State == scheduler.StateAbortedOnRateLimit {
		os.Exit(2)
	}
}

func printReport(report *runner.Report) {
	p := message.NewPrinter(language.English)

	fmt.Println()
	switch report.State {
	case scheduler.StateCompleted:
		if report.Truncated {
			p.Printf("Run complete (capped at %d of %d eligible rows; resume cursor saved).\n",
				report.Summary.Total, report.Eligible)
		} else {
			fmt.Println("Run complete.")
		}
	case scheduler.StateAbortedOnRateLimit:
		fmt.Println("Run aborted on rate limiting; resume cursor saved. Re-run sync later to continue.")
	}

	p.Printf("  dataset:    %s\n", report.DatasetKey)
	p.Printf("  succeeded:  %d\n", report.Summary.Succeeded)
	p.Printf("  failed:     %d\n", report.Summary.Failed)
	p.Printf("  skipped:    %d\n", report.Summary.Skipped)
	if report.ResumedFrom > 0 {
		p.Printf("  resumed after row %d\n", report.ResumedFrom)
	}
	if report.WriteErrors > 0 {
		p.Printf("  write errors: %d\n", report.WriteErrors)
	}
	for reason, count := range report.Summary.FailuresByReason {
		p.Printf("    %-22s %d\n", string(reason)+":", count)
	}
}
