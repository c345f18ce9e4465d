// Package config resolves termout's settings and the terminal context.
//
// Settings come from three layers, later layers winning: built-in defaults,
// a config file, and the command line. The config file is either a plain
// key=value file using the command line names (one entry per line, '#'
// comments, bare flag names) or, when its extension says so, a YAML, TOML
// or JSON document read by viper.
//
// Detect combines the resolved Config with the environment (is stdout a
// terminal, does it accept colour, is the locale UTF-8, how wide is it) into
// the Context every renderer consults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/errors"
	"github.com/Iron-Ham/termout/internal/sgr"
)

const (
	// DefaultLogFile is the log file used when log-out selects a file and
	// no log-file is given.
	DefaultLogFile = "termout.log"
	// DefaultConfigName is looked up when --config is not given.
	DefaultConfigName = "termout.conf"
	// DefaultScratchSize is the capacity of each renderer scratch buffer.
	DefaultScratchSize = 1024
)

// Config represents the complete termout configuration. The mapstructure
// keys are the command line names, which are also the config file keys.
type Config struct {
	// Capability switches. Each one can only take a capability away;
	// detection decides whether it is available at all.
	NoTTY   bool `mapstructure:"no-tty"`
	NoANSI  bool `mapstructure:"no-ansi"`
	NoUTF8  bool `mapstructure:"no-utf8"`
	NoEmoji bool `mapstructure:"no-emoji"`
	NoWarns bool `mapstructure:"no-warns"`

	// TTYForeground and TTYBackground are the terminal's own colours, used
	// to keep styled text readable. "auto" asks the terminal.
	TTYForeground sgr.Color `mapstructure:"tty-foreground"`
	TTYBackground sgr.Color `mapstructure:"tty-background"`

	// LogOut selects where log lines go. A bare "file" means a new
	// timestamped file with its directories created.
	LogOut  channel.Selector `mapstructure:"log-out"`
	LogFile string           `mapstructure:"log-file"`

	// ConfigDump prints the resolved configuration before running.
	ConfigDump bool `mapstructure:"config-dump"`

	// DebugLog is the internal diagnostics file; empty disables it.
	DebugLog string `mapstructure:"debug-log"`
	// DebugLevel is "debug", "info", "warn" or "error".
	DebugLevel string `mapstructure:"debug-level"`
	// DebugMaxSizeMB rotates the diagnostics file at this size.
	DebugMaxSizeMB int `mapstructure:"debug-max-size-mb"`
	// DebugMaxBackups is the number of rotated files kept.
	DebugMaxBackups int `mapstructure:"debug-max-backups"`

	// LockTimeout bounds one attempt to take an output lock.
	LockTimeout time.Duration `mapstructure:"lock-timeout"`
	// LockAttempts is the number of attempts before a write is dropped.
	LockAttempts int `mapstructure:"lock-attempts"`

	// ScratchSize is the capacity of the renderer's scratch buffers.
	ScratchSize int `mapstructure:"scratch-size"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		TTYForeground:   sgr.White,
		TTYBackground:   sgr.Black,
		LogOut:          channel.Stdout,
		LogFile:         DefaultLogFile,
		DebugLevel:      "info",
		DebugMaxSizeMB:  10,
		DebugMaxBackups: 3,
		LockTimeout:     channel.DefaultLockTimeout,
		LockAttempts:    channel.DefaultAttempts,
		ScratchSize:     DefaultScratchSize,
	}
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	// Capability switches
	v.SetDefault("no-tty", defaults.NoTTY)
	v.SetDefault("no-ansi", defaults.NoANSI)
	v.SetDefault("no-utf8", defaults.NoUTF8)
	v.SetDefault("no-emoji", defaults.NoEmoji)
	v.SetDefault("no-warns", defaults.NoWarns)

	// Terminal colours
	v.SetDefault("tty-foreground", defaults.TTYForeground)
	v.SetDefault("tty-background", defaults.TTYBackground)

	// Log output
	v.SetDefault("log-out", defaults.LogOut)
	v.SetDefault("log-file", defaults.LogFile)
	v.SetDefault("config-dump", defaults.ConfigDump)

	// Diagnostics
	v.SetDefault("debug-log", defaults.DebugLog)
	v.SetDefault("debug-level", defaults.DebugLevel)
	v.SetDefault("debug-max-size-mb", defaults.DebugMaxSizeMB)
	v.SetDefault("debug-max-backups", defaults.DebugMaxBackups)

	// Channels and buffers
	v.SetDefault("lock-timeout", defaults.LockTimeout)
	v.SetDefault("lock-attempts", defaults.LockAttempts)
	v.SetDefault("scratch-size", defaults.ScratchSize)
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(DecodeHook())); err != nil {
		return nil, errors.NewConfigError("decode settings", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ChannelOptions returns the channel settings of c.
func (c *Config) ChannelOptions() channel.Options {
	return channel.Options{
		LockTimeout: c.LockTimeout,
		Attempts:    c.LockAttempts,
	}
}

// DecodeHook converts config strings into colours, output selectors and
// durations.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		colorHook,
		selectorHook,
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

var (
	colorType    = reflect.TypeOf(sgr.Color(0))
	selectorType = reflect.TypeOf(channel.Selector(0))
)

func colorHook(from, to reflect.Type, data any) (any, error) {
	if to != colorType || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseTTYColor(reflect.ValueOf(data).String())
}

func selectorHook(from, to reflect.Type, data any) (any, error) {
	if to != selectorType || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseLogOut(reflect.ValueOf(data).String())
}

// ParseTTYColor parses a tty-foreground or tty-background value. "auto"
// yields sgr.Default, which Detect replaces with the terminal's colour.
// Naming the default colour explicitly is an error: the terminal colours
// must be concrete for contrast checks.
func ParseTTYColor(s string) (sgr.Color, error) {
	if strings.EqualFold(strings.TrimSpace(s), "auto") {
		return sgr.Default, nil
	}
	c, err := sgr.ParseColor(s)
	if err != nil {
		return sgr.Default, fmt.Errorf("%w: %w", errors.ErrBadValue, err)
	}
	if c == sgr.Default {
		return sgr.Default, fmt.Errorf("%w: terminal colour cannot be %q", errors.ErrBadValue, s)
	}
	return c, nil
}

// ParseLogOut parses a log-out value. A bare "file" adds TimeIndex and
// CreateDirs so every run gets its own file.
func ParseLogOut(s string) (channel.Selector, error) {
	sel, err := channel.ParseSelector(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errors.ErrBadValue, err)
	}
	if sel == channel.File {
		sel |= channel.TimeIndex | channel.CreateDirs
	}
	return sel, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "termout")
	}
	// Fall back to ~/.config/termout
	home, err := os.UserHomeDir()
	if err != nil {
		return ".termout"
	}
	return filepath.Join(home, ".config", "termout")
}

// FindConfigFile locates a relative config file name. It is looked up in
// the working directory, then the user's config directory, then next to
// the executable. Absolute names and names that are found nowhere are
// returned unchanged.
func FindConfigFile(fs afero.Fs, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	dirs = append(dirs, ConfigDir())
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if ok, _ := afero.Exists(fs, candidate); ok {
			return candidate
		}
	}
	return name
}
