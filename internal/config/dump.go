package config

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/termout/internal/errors"
)

// Snapshot is the resolved configuration and terminal context as printed by
// Dump.
type Snapshot struct {
	TTYForeground string `yaml:"tty_foreground" toml:"tty_foreground" json:"tty_foreground"`
	TTYBackground string `yaml:"tty_background" toml:"tty_background" json:"tty_background"`
	TTYAllowed    bool   `yaml:"tty_allowed" toml:"tty_allowed" json:"tty_allowed"`
	ANSIAllowed   bool   `yaml:"ansi_allowed" toml:"ansi_allowed" json:"ansi_allowed"`
	UTF8          bool   `yaml:"utf8_inited" toml:"utf8_inited" json:"utf8_inited"`
	Emoji         bool   `yaml:"emoji_allowed" toml:"emoji_allowed" json:"emoji_allowed"`
	WarnsAllowed  bool   `yaml:"warns_allowed" toml:"warns_allowed" json:"warns_allowed"`
	LogOut        string `yaml:"log_out" toml:"log_out" json:"log_out"`
	LogFile       string `yaml:"log_file" toml:"log_file" json:"log_file"`
	LogWarns      string `yaml:"log_warns" toml:"log_warns" json:"log_warns"`
	Columns       int    `yaml:"columns" toml:"columns" json:"columns"`

	DebugLog   string `yaml:"debug_log" toml:"debug_log" json:"debug_log"`
	DebugLevel string `yaml:"debug_level" toml:"debug_level" json:"debug_level"`

	LockTimeout  string `yaml:"lock_timeout" toml:"lock_timeout" json:"lock_timeout"`
	LockAttempts int    `yaml:"lock_attempts" toml:"lock_attempts" json:"lock_attempts"`
	ScratchSize  int    `yaml:"scratch_size" toml:"scratch_size" json:"scratch_size"`
}

// TakeSnapshot captures cfg and ctx.
func TakeSnapshot(cfg *Config, ctx *Context) Snapshot {
	warns := Warning(0)
	if ctx.Warnings != nil {
		warns = ctx.Warnings.Load()
	}
	return Snapshot{
		TTYForeground: ctx.TTYForeground.String(),
		TTYBackground: ctx.TTYBackground.String(),
		TTYAllowed:    ctx.TTYAllowed,
		ANSIAllowed:   ctx.ANSIAllowed,
		UTF8:          ctx.UTF8,
		Emoji:         ctx.Emoji,
		WarnsAllowed:  ctx.WarnsAllowed,
		LogOut:        ctx.Output().String(),
		LogFile:       ctx.LogFile,
		LogWarns:      warns.String(),
		Columns:       ctx.Columns,
		DebugLog:      cfg.DebugLog,
		DebugLevel:    cfg.DebugLevel,
		LockTimeout:   cfg.LockTimeout.String(),
		LockAttempts:  cfg.LockAttempts,
		ScratchSize:   cfg.ScratchSize,
	}
}

// ValidDumpFormats returns the formats accepted by Dump.
func ValidDumpFormats() []string {
	return []string{"text", "yaml", "toml", "json"}
}

// Dump writes the resolved configuration to w in format.
func Dump(w io.Writer, format string, cfg *Config, ctx *Context) error {
	snap := TakeSnapshot(cfg, ctx)
	switch strings.ToLower(format) {
	case "", "text":
		_, err := io.WriteString(w, snap.Text())
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(snap)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	default:
		return errors.NewValidationError("unknown dump format").
			WithField("format").WithValue(format)
	}
}

// Text renders the snapshot as the CONFIG DUMP block.
func (s Snapshot) Text() string {
	var b strings.Builder
	b.WriteString("\nCONFIG DUMP ================\n")
	b.WriteString("Logging:\n")
	fmt.Fprintf(&b, "  tty_foreground: %s\n", s.TTYForeground)
	fmt.Fprintf(&b, "  tty_background: %s\n", s.TTYBackground)
	fmt.Fprintf(&b, "  tty_allowed:    %t\n", s.TTYAllowed)
	fmt.Fprintf(&b, "  ansi_allowed:   %t\n", s.ANSIAllowed)
	fmt.Fprintf(&b, "  utf8_inited:    %t\n", s.UTF8)
	fmt.Fprintf(&b, "  emoji_allowed:  %t\n", s.Emoji)
	fmt.Fprintf(&b, "  warns_allowed:  %t\n", s.WarnsAllowed)
	fmt.Fprintf(&b, "  log_out:        %s\n", s.LogOut)
	fmt.Fprintf(&b, "  log_file:       %s\n", s.LogFile)
	fmt.Fprintf(&b, "  log_warns:      %s\n", s.LogWarns)
	fmt.Fprintf(&b, "  columns:        %d\n", s.Columns)
	b.WriteString("Diagnostics:\n")
	fmt.Fprintf(&b, "  debug_log:      %s\n", s.DebugLog)
	fmt.Fprintf(&b, "  debug_level:    %s\n", s.DebugLevel)
	b.WriteString("Channels:\n")
	fmt.Fprintf(&b, "  lock_timeout:   %s\n", s.LockTimeout)
	fmt.Fprintf(&b, "  lock_attempts:  %d\n", s.LockAttempts)
	fmt.Fprintf(&b, "  scratch_size:   %d\n", s.ScratchSize)
	b.WriteString("CONFIG DUMP END ============\n\n")
	return b.String()
}
