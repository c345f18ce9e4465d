package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/termout/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View the resolved termout configuration",
	Long: `View the resolved termout configuration.

Without a subcommand, prints the settings after defaults, the config file
and the command line were applied, together with what was detected about
the terminal.`,
	Args: cmdlineArgs(cobra.NoArgs),
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Args:  cmdlineArgs(cobra.NoArgs),
	RunE:  runConfigShow,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys accepted in a config file",
	Args:  cmdlineArgs(cobra.NoArgs),
	RunE:  runConfigKeys,
}

var configInitCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Create a default config file",
	Long: `Create a commented key=value config file holding the defaults. PATH
defaults to termout.conf in the user's config directory.`,
	Args: cmdlineArgs(cobra.MaximumNArgs(1)),
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	Args:  cmdlineArgs(cobra.NoArgs),
	RunE:  runConfigPath,
}

var configFormat string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configCmd.PersistentFlags().StringVar(&configFormat, "format", "text",
		"output format: "+strings.Join(config.ValidDumpFormats(), ", "))
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if !slices.Contains(config.ValidDumpFormats(), strings.ToLower(configFormat)) {
		return cmdlineError(fmt.Errorf("unknown format %q (valid: %s)", configFormat,
			strings.Join(config.ValidDumpFormats(), ", ")))
	}
	a := current

	var buf bytes.Buffer
	if err := config.Dump(&buf, configFormat, a.cfg, a.ctx); err != nil {
		return err
	}
	return a.print(cmd.Context(), buf.String())
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	a := current
	lg := a.lipgloss()

	keys := config.Keys()
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString(lg.NewStyle().Bold(true).Render("config keys"))
	b.WriteByte('\n')
	for _, k := range keys {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteByte('\n')
	}
	return a.print(cmd.Context(), b.String())
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(config.ConfigDir(), config.DefaultConfigName)
	if len(args) == 1 {
		path = args[0]
	}
	if ok, _ := afero.Exists(appFs, path); ok {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := appFs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(appFs, path, []byte(defaultConfigFile()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	current.diag.Info("config file created", "path", path)
	return current.print(cmd.Context(), "Config saved to "+path+"\n")
}

func defaultConfigFile() string {
	d := config.Default()
	var b strings.Builder
	b.WriteString("# termout configuration\n")
	b.WriteString("# One key=value per line. A bare key turns a switch on.\n\n")
	b.WriteString("# Capabilities: uncomment to switch one off\n")
	b.WriteString("#no-tty\n#no-ansi\n#no-utf8\n#no-emoji\n#no-warns\n\n")
	b.WriteString("# Terminal colours, or auto\n")
	fmt.Fprintf(&b, "tty-foreground=%s\n", strings.ToLower(d.TTYForeground.String()))
	fmt.Fprintf(&b, "tty-background=%s\n\n", strings.ToLower(d.TTYBackground.String()))
	b.WriteString("# Log output: stdout, stderr or file\n")
	b.WriteString("log-out=stdout\n")
	fmt.Fprintf(&b, "log-file=%s\n\n", d.LogFile)
	b.WriteString("# Diagnostics\n")
	b.WriteString("#debug-log=termout-debug.log\n")
	fmt.Fprintf(&b, "debug-level=%s\n\n", d.DebugLevel)
	b.WriteString("# Output locks\n")
	fmt.Fprintf(&b, "lock-timeout=%s\n", d.LockTimeout)
	fmt.Fprintf(&b, "lock-attempts=%d\n", d.LockAttempts)
	fmt.Fprintf(&b, "scratch-size=%d\n", d.ScratchSize)
	return b.String()
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("config")
	path := config.FindConfigFile(appFs, name)
	if ok, _ := afero.Exists(appFs, path); !ok {
		path += " (not found, using defaults)"
	}
	return current.print(cmd.Context(), path+"\n")
}
