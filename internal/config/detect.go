package config

import (
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cast"
	"golang.org/x/term"

	"github.com/Iron-Ham/termout/internal/sgr"
)

// Environ answers questions about the environment. SystemEnviron asks the real
// process; tests supply fixed answers. A nil func means "no".
type Environ struct {
	IsTerminal     func() bool
	Profile        func() colorprofile.Profile
	Getenv         func(key string) string
	Columns        func() (int, error)
	DarkBackground func() bool
}

// SystemEnviron inspects out, the process environment and the terminal
// behind out.
func SystemEnviron(out *os.File) Environ {
	fd := out.Fd()
	return Environ{
		IsTerminal: func() bool {
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
		Profile: func() colorprofile.Profile {
			return colorprofile.Detect(out, os.Environ())
		},
		Getenv: os.Getenv,
		Columns: func() (int, error) {
			w, _, err := term.GetSize(int(fd))
			return w, err
		},
		DarkBackground: func() bool {
			return termenv.NewOutput(out).HasDarkBackground()
		},
	}
}

// Detect builds the terminal context from cfg and the environment.
// Configuration can only take capabilities away: a TTY must also be
// detected, ANSI needs a TTY that accepts colour, and UTF-8 needs a UTF-8
// locale.
func Detect(cfg *Config, p Environ) *Context {
	ctx := NewContext()

	ctx.TTYAllowed = !cfg.NoTTY && call(p.IsTerminal)
	ctx.ANSIAllowed = !cfg.NoANSI && ctx.TTYAllowed && p.Profile != nil &&
		p.Profile() >= colorprofile.ANSI
	ctx.UTF8 = !cfg.NoUTF8 && detectUTF8(p.Getenv, ctx.Warnings)
	ctx.Emoji = !cfg.NoEmoji
	ctx.WarnsAllowed = !cfg.NoWarns

	ctx.TTYForeground, ctx.TTYBackground = resolveColors(cfg, ctx.TTYAllowed, p.DarkBackground)
	ctx.Columns = detectColumns(ctx.TTYAllowed, p)
	ctx.LogFile = cfg.LogFile
	ctx.SetOutput(cfg.LogOut)
	return ctx
}

func call(fn func() bool) bool {
	return fn != nil && fn()
}

func hasUTF8(v string) bool {
	return strings.Contains(v, "UTF-8") || strings.Contains(v, "utf8")
}

// detectUTF8 reports whether text can be treated as UTF-8. LANG or LC_ALL
// must declare it, and the effective character-type locale (LC_ALL, then
// LC_CTYPE, then LANG) must agree; a declared but overridden locale is
// recorded as a failed activation.
func detectUTF8(getenv func(string) string, warns *Warnings) bool {
	if getenv == nil {
		return false
	}
	if !hasUTF8(getenv("LANG")) && !hasUTF8(getenv("LC_ALL")) {
		return false
	}
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := getenv(key); v != "" {
			if hasUTF8(v) {
				return true
			}
			break
		}
	}
	warns.Set(LocaleActivationFailed)
	return false
}

// resolveColors replaces "auto" terminal colours. Without a terminal to
// ask, a dark background is assumed.
func resolveColors(cfg *Config, tty bool, dark func() bool) (fg, bg sgr.Color) {
	fg, bg = cfg.TTYForeground, cfg.TTYBackground
	if fg != sgr.Default && bg != sgr.Default {
		return fg, bg
	}
	isDark := true
	if tty && dark != nil {
		isDark = dark()
	}
	autoFg, autoBg := sgr.White, sgr.Black
	if !isDark {
		autoFg, autoBg = sgr.Black, sgr.White
	}
	if fg == sgr.Default {
		fg = autoFg
	}
	if bg == sgr.Default {
		bg = autoBg
	}
	return fg, bg
}

func detectColumns(tty bool, p Environ) int {
	if tty && p.Columns != nil {
		if w, err := p.Columns(); err == nil && w > 0 {
			return w
		}
	}
	if p.Getenv != nil {
		if w, err := cast.ToIntE(p.Getenv("COLUMNS")); err == nil && w > 0 {
			return w
		}
	}
	return DefaultColumns
}
