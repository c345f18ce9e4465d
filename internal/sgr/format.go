package sgr

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// ResetSequence clears every attribute.
const ResetSequence = "\x1b[0m"

// ClearLine erases from the cursor to the end of the line.
const ClearLine = ansi.EraseLineRight

// ClearScreen homes the cursor and erases the whole screen.
const ClearScreen = ansi.CursorHomePosition + ansi.EraseEntireScreen

// Format is a complete SGR state: foreground, background and styles. The
// zero value renders the terminal defaults with ANSI enabled.
type Format struct {
	Fg     Color
	Bg     Color
	Styles Styles
	// Plain suppresses every sequence. Set when the sink or the terminal
	// context does not accept ANSI.
	Plain bool
}

// New returns a format with the given colours and styles.
func New(fg, bg Color, styles ...Style) Format {
	return Format{Fg: fg, Bg: bg, Styles: NewStyles(styles...)}
}

// Sequence returns the SGR sequence selecting f, always in the order
// foreground, background, styles: "\x1b[31;49;1m". Plain formats render
// nothing.
func (f Format) Sequence() string {
	if f.Plain {
		return ""
	}
	attrs := make([]ansi.Attr, 0, 2+f.Styles.Len())
	attrs = append(attrs, f.Fg.FgCode(), f.Bg.BgCode())
	for i := 0; i < f.Styles.Len(); i++ {
		attrs = append(attrs, int(f.Styles.At(i)))
	}
	return ansi.NewStyle(attrs...).String()
}

// Reset returns the sequence undoing f, or nothing for plain formats.
func (f Format) Reset() string {
	if f.Plain {
		return ""
	}
	return ResetSequence
}

// Wrap returns s between the sequence for f and a reset.
func (f Format) Wrap(s string) string {
	if f.Plain {
		return s
	}
	return f.Sequence() + s + ResetSequence
}

// HasPadUnsafe reports whether any style would make padding visible.
func (f Format) HasPadUnsafe() bool { return f.Styles.Any(Style.PadUnsafe) }

// HasTruncUnsafe reports whether any style would garble a cut marker.
func (f Format) HasTruncUnsafe() bool { return f.Styles.Any(Style.TruncUnsafe) }

// SafeTruncate adapts a cut-marker format to the cell it ends: it takes
// the cell's background and drops styles that would hide the marker.
func (f Format) SafeTruncate(cell Format) Format {
	f.Bg = cell.Bg
	f.Styles.RemoveIf(Style.TruncUnsafe)
	f.Plain = f.Plain || cell.Plain
	return f
}

// SafeContrast keeps text readable when the effective foreground (f.Fg,
// or ttyFg when default) equals the effective background (f.Bg, or ttyBg).
// With preserveBackground the foreground brightness is toggled, otherwise
// the background's.
func (f Format) SafeContrast(ttyFg, ttyBg Color, preserveBackground bool) Format {
	fg := f.Fg
	if fg == Default {
		fg = ttyFg
	}
	bg := f.Bg
	if bg == Default {
		bg = ttyBg
	}
	if fg == Default || fg != bg {
		return f
	}
	if preserveBackground {
		f.Fg = ToggleBrightness(fg)
	} else {
		f.Bg = ToggleBrightness(bg)
	}
	return f
}

func (f Format) String() string {
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(f.Fg.String())
	b.WriteString(", ")
	b.WriteString(f.Bg.String())
	b.WriteString(", ")
	b.WriteString(f.Styles.String())
	b.WriteString(", ansi=")
	b.WriteString(strconv.FormatBool(!f.Plain))
	b.WriteByte('}')
	return b.String()
}

// CursorLeft moves the cursor n cells left. n < 1 renders nothing.
func CursorLeft(n int) string {
	if n < 1 {
		return ""
	}
	return ansi.CursorBackward(n)
}

// CursorRight moves the cursor n cells right.
func CursorRight(n int) string {
	if n < 1 {
		return ""
	}
	return ansi.CursorForward(n)
}

// CursorUp moves the cursor n lines up.
func CursorUp(n int) string {
	if n < 1 {
		return ""
	}
	return ansi.CursorUp(n)
}

// CursorDown moves the cursor n lines down.
func CursorDown(n int) string {
	if n < 1 {
		return ""
	}
	return ansi.CursorDown(n)
}

// ClearLeft blanks the n cells left of the cursor and leaves the cursor at
// the start of the blanked region.
func ClearLeft(n int) string {
	if n < 1 {
		return ""
	}
	back := ansi.CursorBackward(n)
	return back + strings.Repeat(" ", n) + back
}
