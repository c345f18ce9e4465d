package cmd

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/termout/internal/logging"
)

var diagCmd = &cobra.Command{
	Use:   "diag [FILE]",
	Short: "View the internal diagnostics log",
	Long: `View and filter the JSON diagnostics written with --debug-log.

FILE defaults to the configured --debug-log file.

Examples:
  # Show the last 50 entries
  termout diag --debug-log termout-debug.log

  # Only channel warnings and errors from the last hour
  termout diag debug.log --level warn --component channel --since 1h

  # Export everything as CSV
  termout diag debug.log -n 0 --format csv`,
	Args: cmdlineArgs(cobra.MaximumNArgs(1)),
	RunE: runDiag,
}

var (
	diagTail      int
	diagLevel     string
	diagComponent string
	diagContains  string
	diagSince     time.Duration
	diagFormat    string
)

func init() {
	rootCmd.AddCommand(diagCmd)

	diagCmd.Flags().IntVarP(&diagTail, "tail", "n", 50, "number of entries to show (0 for all)")
	diagCmd.Flags().StringVar(&diagLevel, "level", "", "minimum level (debug/info/warn/error)")
	diagCmd.Flags().StringVar(&diagComponent, "component", "", "only entries from this component")
	diagCmd.Flags().StringVar(&diagContains, "contains", "", "only entries whose message contains this text")
	diagCmd.Flags().DurationVar(&diagSince, "since", 0, "only entries newer than this (e.g. 1h, 30m)")
	diagCmd.Flags().StringVar(&diagFormat, "format", "text",
		"output format: "+strings.Join(logging.ExportFormats(), ", "))
}

func runDiag(cmd *cobra.Command, args []string) error {
	a := current
	path := a.cfg.DebugLog
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return cmdlineError(fmt.Errorf("no diagnostics file: pass FILE or --debug-log"))
	}
	if diagLevel != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(diagLevel)) {
		return cmdlineError(fmt.Errorf("invalid level %q (valid: %s)", diagLevel,
			strings.Join(logging.ValidLevels(), ", ")))
	}
	if !slices.Contains(logging.ExportFormats(), strings.ToLower(diagFormat)) {
		return cmdlineError(fmt.Errorf("unknown format %q (valid: %s)", diagFormat,
			strings.Join(logging.ExportFormats(), ", ")))
	}

	entries, err := logging.ReadEntries(appFs, path)
	if err != nil {
		return err
	}
	filter := logging.Filter{
		Level:     diagLevel,
		Component: diagComponent,
		Contains:  diagContains,
	}
	if diagSince > 0 {
		filter.Since = time.Now().Add(-diagSince)
	}
	entries = logging.FilterEntries(entries, filter)
	if diagTail > 0 && len(entries) > diagTail {
		entries = entries[len(entries)-diagTail:]
	}

	var buf bytes.Buffer
	if err := logging.ExportEntries(&buf, entries, diagFormat); err != nil {
		return err
	}
	return a.print(cmd.Context(), buf.String())
}
