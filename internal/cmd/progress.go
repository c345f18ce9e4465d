package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/termout/internal/progress"
	"github.com/Iron-Ham/termout/internal/sgr"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Draw a progress indicator",
	Long: `Draw a progress indicator over a fixed number of ticks.

The bar and percent variants redraw in place and need a terminal that
accepts escape sequences; on a terminal without them the alternate variant
is drawn instead, and nothing is drawn when the output is not a terminal.

Examples:
  termout progress
  termout progress --variant percent --cycles 200 --delay 10ms
  termout progress --variant alt --width 20 --keep`,
	Args: cmdlineArgs(cobra.NoArgs),
	RunE: runProgress,
}

var (
	progressVariant string
	progressCycles  int
	progressLength  int
	progressDelay   time.Duration
	progressKeep    bool
	progressStyle   string
)

func init() {
	rootCmd.AddCommand(progressCmd)

	progressCmd.Flags().StringVar(&progressVariant, "variant", "bar", "indicator: bar, alt or percent")
	progressCmd.Flags().IntVar(&progressCycles, "cycles", progress.DefaultCycles, "ticks between the first and the final frame")
	progressCmd.Flags().IntVar(&progressLength, "width", progress.DefaultLength, "mark slots of the bar and alt variants")
	progressCmd.Flags().DurationVar(&progressDelay, "delay", 50*time.Millisecond, "pause between ticks")
	progressCmd.Flags().BoolVar(&progressKeep, "keep", false, "leave the final frame on screen")
	progressCmd.Flags().StringVar(&progressStyle, "style", "bold", "comma separated styles of the indicator")
}

func runProgress(cmd *cobra.Command, _ []string) error {
	variant, ok := progress.ParseVariant(progressVariant)
	if !ok {
		return cmdlineError(fmt.Errorf("unknown progress variant %q (valid: bar, alt, percent)", progressVariant))
	}
	styles, err := sgr.ParseStyles(progressStyle)
	if err != nil {
		return cmdlineError(err)
	}

	a := current
	defer a.stdoutScope()()

	bar := progress.New(a.renderer)
	bar.Variant = variant
	bar.Cycles = progressCycles
	bar.Length = progressLength
	bar.Hide = !progressKeep
	bar.Style.Styles = styles

	ctx := cmd.Context()
	w := writer{ctx: ctx, ch: a.stdout}
	a.diag.Debug("progress started", "variant", variant.String(), "cycles", bar.Cycles)

	for i := 0; i <= bar.Cycles; i++ {
		if i > 0 && progressDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(progressDelay):
			}
		}
		if err := bar.Tick(w); err != nil {
			return outputError(err)
		}
	}
	if progressKeep && a.renderer.TTY() {
		return a.print(ctx, "\n")
	}
	return nil
}
