package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags defines the global settings flags on fs. Their names are
// the config keys, so binding fs to viper gives the command line the last
// word over the config file.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("config", DefaultConfigName, "config file (key=value, or .yaml/.toml/.json)")
	fs.Bool("config-dump", false, "print the resolved configuration before running")

	fs.Bool("no-tty", false, "never treat the output as a terminal")
	fs.Bool("no-ansi", false, "disable ANSI colours and cursor movement")
	fs.Bool("no-utf8", false, "measure text as ASCII")
	fs.Bool("no-emoji", false, "replace emoji labels with plain text")
	fs.Bool("no-warns", false, "suppress deferred warnings at exit")

	fs.String("tty-foreground", d.TTYForeground.String(), "terminal foreground colour, or auto")
	fs.String("tty-background", d.TTYBackground.String(), "terminal background colour, or auto")

	fs.String("log-out", "stdout", "log output: stdout, stderr or file")
	fs.String("log-file", d.LogFile, "log file used when log-out is file")

	fs.String("debug-log", d.DebugLog, "write internal diagnostics to this file")
	fs.String("debug-level", d.DebugLevel, "diagnostics level: debug, info, warn, error")

	fs.Duration("lock-timeout", d.LockTimeout, "timeout of one output lock attempt")
	fs.Int("lock-attempts", d.LockAttempts, "output lock attempts before a write is dropped")
}
