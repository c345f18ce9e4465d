package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/termout/internal/cell"
	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/config"
	"github.com/Iron-Ham/termout/internal/errors"
	"github.com/Iron-Ham/termout/internal/logging"
	"github.com/Iron-Ham/termout/internal/pathres"
)

// app is everything a command needs, built once per run from the resolved
// configuration.
type app struct {
	cfg      *config.Config
	ctx      *config.Context
	reg      *channel.Registry
	diag     *logging.Diag
	renderer *cell.Renderer
	logger   *logging.Logger
	stdout   *channel.Channel
	stderr   *channel.Channel
	out      io.Writer
}

// environFor inspects the process terminal when out is a file and reports
// no terminal otherwise.
var environFor = func(out io.Writer) config.Environ {
	if f, ok := out.(*os.File); ok {
		return config.SystemEnviron(f)
	}
	return config.Environ{Getenv: os.Getenv}
}

// setup resolves the configuration and builds the command environment.
func setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if err := checkFlagValues(flags); err != nil {
		return err
	}

	v := viper.New()
	config.SetDefaults(v)

	var fileErr *config.FileErrors
	if err := readConfigFile(v, flags); err != nil {
		if !errors.As(err, &fileErr) {
			return &exitError{code: channel.ExitCfgFileFailure, err: err}
		}
	}

	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return &exitError{code: loadFailureCode(err, flags), err: err}
	}

	a, err := newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	current = a

	if fileErr != nil {
		a.stderr.WriteString(context.Background(), fileErr.Error())
		if fileErr.Fatal() {
			return &exitError{code: channel.ExitCfgFileFailure, err: fileErr, reported: true}
		}
	}

	a.diag.Debug("configuration resolved",
		"config", v.ConfigFileUsed(),
		"log_out", cfg.LogOut.String(),
		"tty", a.ctx.TTYAllowed,
		"ansi", a.ctx.ANSIAllowed,
		"utf8", a.ctx.UTF8,
		"columns", a.ctx.Columns,
	)

	if cfg.ConfigDump {
		var buf bytes.Buffer
		if err := config.Dump(&buf, "text", cfg, a.ctx); err != nil {
			return err
		}
		return a.print(context.Background(), buf.String())
	}
	return nil
}

// readConfigFile merges the --config file into v. A missing default file
// is not an error; a missing named one is.
func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	name, _ := flags.GetString("config")
	if name == "" {
		return nil
	}
	path := config.FindConfigFile(appFs, name)
	if !flags.Changed("config") {
		if _, err := appFs.Stat(path); err != nil {
			return nil
		}
	}
	return config.ReadFile(v, appFs, path)
}

// checkFlagValues parses the values the decode hooks would otherwise
// reject, so a bad command line exits as a command line failure rather
// than a config failure.
func checkFlagValues(flags *pflag.FlagSet) error {
	for _, name := range []string{"tty-foreground", "tty-background"} {
		if !flags.Changed(name) {
			continue
		}
		s, _ := flags.GetString(name)
		if _, err := config.ParseTTYColor(s); err != nil {
			return cmdlineError(fmt.Errorf("--%s: %w", name, err))
		}
	}
	if flags.Changed("log-out") {
		s, _ := flags.GetString("log-out")
		if _, err := config.ParseLogOut(s); err != nil {
			return cmdlineError(fmt.Errorf("--log-out: %w", err))
		}
	}
	return nil
}

// loadFailureCode blames the command line when an invalid setting was set
// there and the config file otherwise.
func loadFailureCode(err error, flags *pflag.FlagSet) channel.ExitCode {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			if flags.Changed(ve.Field) {
				return channel.ExitCmdlineFailure
			}
		}
	}
	return channel.ExitCfgFileFailure
}

func newApp(cfg *config.Config, out, errOut io.Writer) (*app, error) {
	diag, err := logging.NewDiag(logging.DiagOptions{
		Path:  cfg.DebugLog,
		Level: cfg.DebugLevel,
		Rotation: logging.RotationConfig{
			MaxSizeMB:  cfg.DebugMaxSizeMB,
			MaxBackups: cfg.DebugMaxBackups,
			Compress:   true,
		},
		Fs: appFs,
	})
	if err != nil {
		return nil, &exitError{code: channel.ExitLoggingFailure, err: err}
	}

	opts := cfg.ChannelOptions()
	opts.Logger = diag.WithComponent("channel")
	opts.Fallback = fallbackFor(errOut)
	reg := channel.NewRegistry(
		channel.WithStdout(out),
		channel.WithStderr(errOut),
		channel.WithResolver(pathres.New(appFs)),
		channel.WithChannelOptions(opts),
	)

	ctx := config.Detect(cfg, environFor(out))
	renderer := cell.NewRenderer(ctx, cfg.ScratchSize)

	a := &app{
		cfg:      cfg,
		ctx:      ctx,
		reg:      reg,
		diag:     diag,
		renderer: renderer,
		stdout:   reg.MustGet(channel.Stdout),
		stderr:   reg.MustGet(channel.Stderr),
		out:      out,
	}

	sink, err := logging.OpenSink(ctx, reg, cfg.LogOut, cfg.LogFile)
	if err != nil {
		_ = a.close()
		return nil, &exitError{code: channel.ExitLoggingFailure, err: err}
	}
	a.logger = logging.New(renderer, sink,
		logging.WithDiag(diag.WithComponent("logger")),
		logging.WithLineSize(cfg.ScratchSize),
	)
	return a, nil
}

// close flushes deferred warnings and releases every sink.
func (a *app) close() error {
	var errs []error
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.reg.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.diag.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// print writes s to stdout as one unit.
func (a *app) print(ctx context.Context, s string) error {
	if res := a.stdout.WriteString(ctx, s); !res.OK() {
		return outputError(res.Err)
	}
	return nil
}

// stdoutScope points the context output at stdout until the returned func
// is called, so renders are styled for the terminal they land on.
func (a *app) stdoutScope() (restore func()) {
	prev := a.ctx.SetOutput(channel.Stdout)
	return func() { a.ctx.SetOutput(prev) }
}

// lipgloss returns a lipgloss renderer for stdout that emits colour only
// when the context allows it.
func (a *app) lipgloss() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(a.out)
	if !a.ctx.CanUseANSI(channel.Stdout) {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// writer adapts a channel to io.Writer for code that renders in several
// writes, such as progress frames. Each Write is delivered whole.
type writer struct {
	ctx context.Context
	ch  *channel.Channel
}

func (w writer) Write(p []byte) (int, error) {
	if res := w.ch.Write(w.ctx, p); !res.OK() {
		return 0, res.Err
	}
	return len(p), nil
}
