package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/logging"
)

var logCmd = &cobra.Command{
	Use:   "log LEVEL MESSAGE...",
	Short: "Write one log line",
	Long: `Write one labelled log line to the configured log output.

LEVEL is one of error, debug, info, test, warn, time or ok. The message
words are joined with single spaces.

Examples:
  termout log info "build started"
  termout log --log-out stderr warn disk almost full
  termout --log-out file --log-file build.log log ok done`,
	Args: cmdlineArgs(cobra.MinimumNArgs(1)),
	RunE: runLog,
}

var logWidth int

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().IntVar(&logWidth, "width", 0, "pad or truncate the message to this many columns (0 for none)")
}

func runLog(cmd *cobra.Command, args []string) error {
	lvl, ok := logging.ParseLevelName(args[0])
	if !ok {
		return cmdlineError(fmt.Errorf("unknown level %q (valid: %s)", args[0],
			strings.Join(logging.LevelNames(), ", ")))
	}

	a := current
	logger := a.logger
	if logWidth > 0 {
		text := logging.DefaultTextFormat()
		text.Width = logWidth
		logger = logging.New(a.renderer, a.logger.Sink(),
			logging.WithDiag(a.diag.WithComponent("logger")),
			logging.WithTextFormat(text),
			logging.WithLineSize(a.cfg.ScratchSize),
		)
	}

	if err := logger.Log(cmd.Context(), lvl, strings.Join(args[1:], " ")); err != nil {
		return &exitError{code: channel.ExitLoggingFailure, err: err}
	}
	return nil
}
