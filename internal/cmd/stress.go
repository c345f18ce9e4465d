package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/errors"
	"github.com/Iron-Ham/termout/internal/logging"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Write log lines from many goroutines at once",
	Long: `Write log lines from many concurrent writers into one sink and print
the channel statistics: lines written, dropped after lock contention, and
failed.

With --sink buffer the lines are captured in memory and every line is
checked to be intact.

Examples:
  termout stress --writers 16 --lines 1000 --sink stderr
  termout stress --sink file --file stress.log
  termout stress --sink buffer --lock-attempts 1`,
	Args: cmdlineArgs(cobra.NoArgs),
	RunE: runStress,
}

var (
	stressWriters int
	stressLines   int
	stressSink    string
	stressFile    string
)

func init() {
	rootCmd.AddCommand(stressCmd)

	stressCmd.Flags().IntVar(&stressWriters, "writers", 8, "concurrent writers")
	stressCmd.Flags().IntVar(&stressLines, "lines", 100, "lines per writer")
	stressCmd.Flags().StringVar(&stressSink, "sink", "buffer", "sink: stdout, stderr, file or buffer")
	stressCmd.Flags().StringVar(&stressFile, "file", "termout-stress.log", "file written when --sink is file")
}

// stressResult is the outcome of one stress run.
type stressResult struct {
	lines     int
	dropped   int64
	intact    int
	checked   bool
	elapsed   time.Duration
	before    []channel.Counters
	after     []channel.Counters
	sinkLabel string
}

func runStress(cmd *cobra.Command, _ []string) error {
	if stressWriters < 1 || stressLines < 1 {
		return cmdlineError(fmt.Errorf("--writers and --lines must be positive"))
	}
	sel, err := channel.ParseSelector(stressSink)
	if err != nil {
		return cmdlineError(err)
	}
	if sel == channel.File {
		sel |= channel.CreateDirs
	}

	a := current
	sink, err := logging.OpenSink(a.ctx, a.reg, sel, stressFile)
	if err != nil {
		return &exitError{code: channel.ExitLoggingFailure, err: err}
	}
	defer sink.Close()
	logger := logging.New(a.renderer, sink,
		logging.WithDiag(a.diag.WithComponent("stress")),
		logging.WithLineSize(a.cfg.ScratchSize),
	)

	res, err := stress(cmd.Context(), logger, stressWriters, stressLines)
	if err != nil {
		return outputError(err)
	}
	res.sinkLabel = sel.String()
	if sink.Buffered() {
		res.checked = true
		res.intact = countIntact(sink.View(), stressWriters, stressLines)
		sink.ClearBuffer()
	}
	a.diag.Info("stress finished",
		"sink", res.sinkLabel,
		"lines", res.lines,
		"dropped", res.dropped,
		"elapsed", res.elapsed,
	)
	return a.print(cmd.Context(), stressSummary(a, res))
}

// stress runs writers goroutines that each log lines lines. Contended
// lines are dropped and counted; a failed sink ends the run.
func stress(ctx context.Context, logger *logging.Logger, writers, lines int) (stressResult, error) {
	res := stressResult{lines: writers * lines, before: channel.Stats()}
	var dropped atomic.Int64

	start := time.Now()
	p := pool.New().WithContext(ctx).WithMaxGoroutines(writers).WithCancelOnError()
	for w := range writers {
		p.Go(func(ctx context.Context) error {
			for l := range lines {
				err := logger.Log(ctx, logging.LevelInfo, stressLine(w, l))
				switch {
				case err == nil:
				case errors.IsRetryable(err):
					dropped.Add(1)
				default:
					return fmt.Errorf("writer %d: %w", w, err)
				}
			}
			return nil
		})
	}
	err := p.Wait()
	res.elapsed = time.Since(start)
	res.dropped = dropped.Load()
	res.after = channel.Stats()
	return res, err
}

func stressLine(writer, line int) string {
	return "writer " + strconv.Itoa(writer) + " line " + strconv.Itoa(line) + " " +
		strings.Repeat("=", 16)
}

// countIntact counts captured lines that are exactly one stress line
// after the level label.
func countIntact(captured string, writers, lines int) int {
	want := make(map[string]bool, writers*lines)
	for w := range writers {
		for l := range lines {
			want[stressLine(w, l)] = true
		}
	}
	intact := 0
	for _, line := range strings.Split(strings.TrimSuffix(captured, "\n"), "\n") {
		_, msg, ok := strings.Cut(line, "] ")
		if !ok {
			// emoji labels have no bracket
			_, msg, ok = strings.Cut(line, " ")
		}
		if ok && want[msg] {
			delete(want, msg)
			intact++
		}
	}
	return intact
}

func stressSummary(a *app, res stressResult) string {
	lg := a.lipgloss()
	title := lg.NewStyle().Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("sink", "written", "contended", "failed").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return title.Padding(0, 1)
			}
			return lg.NewStyle().Padding(0, 1)
		})
	for i, after := range res.after {
		before := res.before[i]
		t.Row(
			strings.ToLower(after.Kind.String()),
			strconv.FormatUint(after.Written-before.Written, 10),
			strconv.FormatUint(after.Contended-before.Contended, 10),
			strconv.FormatUint(after.Failed-before.Failed, 10),
		)
	}

	var b strings.Builder
	b.WriteString(title.Render("stress " + res.sinkLabel))
	fmt.Fprintf(&b, "\nlines: %d  dropped: %d  elapsed: %s\n", res.lines, res.dropped,
		logging.FormatDuration(res.elapsed))
	if res.checked {
		fmt.Fprintf(&b, "intact: %d/%d\n", res.intact, res.lines-int(res.dropped))
	}
	b.WriteString(t.Render())
	b.WriteByte('\n')
	return b.String()
}
