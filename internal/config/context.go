package config

import (
	"sync/atomic"

	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/sgr"
)

// DefaultColumns is used when the terminal width cannot be queried.
const DefaultColumns = 80

// Context is the terminal context every renderer and logger consults. It
// is built once from the resolved Config and the detected environment and
// passed by reference.
type Context struct {
	TTYAllowed   bool
	ANSIAllowed  bool
	UTF8         bool
	Emoji        bool
	WarnsAllowed bool

	TTYForeground sgr.Color
	TTYBackground sgr.Color

	LogFile string
	Columns int

	Warnings *Warnings

	output atomic.Uint32
}

// NewContext returns a context with every capability enabled, writing to
// stdout. Tests and library users start from it; the CLI uses Detect.
func NewContext() *Context {
	c := &Context{
		TTYAllowed:    true,
		ANSIAllowed:   true,
		UTF8:          true,
		Emoji:         true,
		WarnsAllowed:  true,
		TTYForeground: sgr.White,
		TTYBackground: sgr.Black,
		LogFile:       DefaultLogFile,
		Columns:       DefaultColumns,
		Warnings:      &Warnings{},
	}
	c.SetOutput(channel.Stdout)
	return c
}

// Plain returns a context with TTY, ANSI, UTF-8 and emoji disabled.
func Plain() *Context {
	c := NewContext()
	c.TTYAllowed = false
	c.ANSIAllowed = false
	c.UTF8 = false
	c.Emoji = false
	return c
}

// Output returns the selected log output.
func (c *Context) Output() channel.Selector {
	return channel.Selector(c.output.Load())
}

// SetOutput replaces the selected log output and returns the previous one.
func (c *Context) SetOutput(sel channel.Selector) channel.Selector {
	return channel.Selector(c.output.Swap(uint32(sel)))
}

// CanUseTTY reports whether terminal control is allowed on sel.
func (c *Context) CanUseTTY(sel channel.Selector) bool {
	return c.TTYAllowed && sel.SupportsTTY()
}

// CanUseANSI reports whether escape sequences may be written to sel.
func (c *Context) CanUseANSI(sel channel.Selector) bool {
	return c.ANSIAllowed && c.CanUseTTY(sel)
}

// CanUseUTF8 reports whether text is measured as UTF-8.
func (c *Context) CanUseUTF8() bool { return c.UTF8 }

// CanUseEmoji reports whether emoji may be printed.
func (c *Context) CanUseEmoji() bool { return c.UTF8 && c.Emoji }

// Warn records a deferred warning.
func (c *Context) Warn(w Warning) {
	if c.Warnings != nil {
		c.Warnings.Set(w)
	}
}
