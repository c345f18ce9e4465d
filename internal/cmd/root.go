package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/config"
	"github.com/Iron-Ham/termout/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "termout",
	Short: "Aligned, styled and synchronized terminal output",
	Long: `termout renders values into fixed-width, styled terminal fields,
measures text the way terminals draw it, draws progress indicators and
writes log lines that never interleave, even with many concurrent writers.

Settings come from built-in defaults, then the config file (termout.conf
by default), then the command line.`,
	Args:              cmdlineArgs(cobra.NoArgs),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// appFs is the filesystem for config files, log files and diagnostics.
var appFs afero.Fs = afero.NewOsFs()

// current is the environment of the running command, set up by the root
// command's pre-run hook and torn down by Run.
var current *app

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().Int("debug-max-size-mb", config.Default().DebugMaxSizeMB, "rotate the diagnostics file at this size")
	rootCmd.PersistentFlags().Int("debug-max-backups", config.Default().DebugMaxBackups, "rotated diagnostics files to keep")
	rootCmd.PersistentFlags().Int("scratch-size", config.DefaultScratchSize, "capacity of each render scratch buffer")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cmdlineError(err)
	})
}

// Execute runs the root command with the process arguments and returns
// the exit code.
func Execute() channel.ExitCode {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes args against the command tree with the given streams. Flags
// are reset first, so Run may be called more than once per process.
func Run(args []string, stdout, stderr io.Writer) channel.ExitCode {
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	code := exitCode(err)

	a := current
	current = nil
	if err != nil && !isReported(err) {
		report(a, stderr, err)
	}
	if a != nil {
		if cerr := a.close(); cerr != nil && code == channel.ExitSuccess {
			report(a, stderr, cerr)
			code = channel.ExitLoggingFailure
		}
	}
	return code
}

// report writes err through the stderr channel of a, or of a throwaway
// registry when the command failed before its environment existed.
func report(a *app, stderr io.Writer, err error) {
	var ch *channel.Channel
	if a != nil {
		ch = a.stderr
	} else {
		ch = channel.NewRegistry(channel.WithStderr(stderr),
			channel.WithChannelOptions(channel.Options{Fallback: fallbackFor(stderr)}),
		).MustGet(channel.Stderr)
	}
	channel.ReportError(context.Background(), ch, err)
}

// fallbackFor returns the raw writer used when the stderr channel cannot
// deliver. Nil selects the raw process stderr.
func fallbackFor(stderr io.Writer) io.Writer {
	if stderr == os.Stderr {
		return nil
	}
	return stderr
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// exitError carries the exit code of a failure. A reported error has
// already been printed.
type exitError struct {
	code     channel.ExitCode
	err      error
	reported bool
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func cmdlineError(err error) error {
	return &exitError{code: channel.ExitCmdlineFailure, err: err}
}

func outputError(err error) error {
	return &exitError{code: channel.ExitOutputFailure, err: err}
}

func cmdlineArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return cmdlineError(err)
		}
		return nil
	}
}

func exitCode(err error) channel.ExitCode {
	if err == nil {
		return channel.ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return channel.ExitUnknownError
}

func isReported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}
