package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"viewledger/pkg/config"
	"viewledger/pkg/cursor"
	"viewledger/pkg/runner"
)

// cursorCmd represents the cursor command
var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Inspect and reset resume cursors",
	Long: `A resume cursor records how far an interrupted sync got through a
sheet. Show where the next sync will resume, or reset the cursor to
reprocess the whole sheet.`,
}

// cursorShowCmd represents the cursor show command
var cursorShowCmd = &cobra.Command{
	Use:   "show [sheet.csv]",
	Short: "Show the resume cursor for a sheet",
	Args:  cobra.MaximumNArgs(1),
	Run:   runCursorShow,
}

// cursorResetCmd represents the cursor reset command
var cursorResetCmd = &cobra.Command{
	Use:   "reset [sheet.csv]",
	Short: "Clear the resume cursor for a sheet",
	Args:  cobra.MaximumNArgs(1),
	Run:   runCursorReset,
}

func init() {
	rootCmd.AddCommand(cursorCmd)
	cursorCmd.AddCommand(cursorShowCmd)
	cursorCmd.AddCommand(cursorResetCmd)
}

func cursorStoreAndKey(args []string) (*cursor.Store, string) {
	flags := make(map[string]interface{})
	if len(args) == 1 {
		flags["sheet"] = args[0]
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	store, err := cursor.NewStore(cfg.Sheet.CursorDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to open cursor store:", err)
		os.Exit(1)
	}

	return store, runner.DatasetKey(cfg.Sheet.Path)
}

func runCursorShow(cmd *cobra.Command, args []string) {
	store, key := cursorStoreAndKey(args)

	cur, err := store.Read(key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to read cursor:", err)
		os.Exit(1)
	}
	if cur == nil {
		fmt.Printf("No resume cursor for dataset %q; the next sync starts from the top.\n", key)
		return
	}

	fmt.Printf("Dataset %q resumes after row %d (updated %s, %d rows processed so far)\n",
		key, cur.LastProcessedPosition, cur.UpdatedAt.Format("2006-01-02 15:04"), cur.TotalProcessed)
}

func runCursorReset(cmd *cobra.Command, args []string) {
	store, key := cursorStoreAndKey(args)

	if err := store.Clear(key); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to clear cursor:", err)
		os.Exit(1)
	}
	fmt.Printf("Cursor cleared for dataset %q\n", key)
}
