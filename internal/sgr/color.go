// Package sgr models the ANSI Select Graphic Rendition subset the renderer
// emits: the 16-colour palette, text styles, and the cursor and erase
// sequences used to redraw a field in place.
package sgr

import (
	"fmt"
	"strings"
)

// Color is an entry of the 16-colour palette. The same value is used for
// foreground and background; the SGR code depends on where it is applied.
// The zero value is the terminal default.
type Color uint8

const (
	Default Color = iota
	Black
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	BrightBlack
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite

	numColors
)

const (
	fgDefault    = 39
	bgDefault    = 49
	fgNormalBase = 30
	fgBrightBase = 90
	bgOffset     = 10
)

var colorNames = [numColors]string{
	"Default",
	"Black", "Red", "Green", "Yellow", "Blue", "Magenta", "Cyan", "White",
	"BrightBlack", "BrightRed", "BrightGreen", "BrightYellow",
	"BrightBlue", "BrightMagenta", "BrightCyan", "BrightWhite",
}

func (c Color) String() string {
	if c >= numColors {
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
	return colorNames[c]
}

// Valid reports whether c is a palette entry.
func (c Color) Valid() bool { return c < numColors }

// IsNormal reports whether c is one of the eight base colours.
func (c Color) IsNormal() bool { return c >= Black && c <= White }

// IsBright reports whether c is one of the eight bright colours.
func (c Color) IsBright() bool { return c >= BrightBlack && c <= BrightWhite }

// FgCode returns the SGR parameter selecting c as foreground: 30-37, 90-97
// or 39 for the default.
func (c Color) FgCode() int {
	switch {
	case c.IsNormal():
		return fgNormalBase + int(c-Black)
	case c.IsBright():
		return fgBrightBase + int(c-BrightBlack)
	default:
		return fgDefault
	}
}

// BgCode returns the SGR parameter selecting c as background: 40-47,
// 100-107 or 49 for the default.
func (c Color) BgCode() int {
	if !c.IsNormal() && !c.IsBright() {
		return bgDefault
	}
	return c.FgCode() + bgOffset
}

// ToggleBrightness swaps a base colour with its bright variant. Default is
// returned unchanged.
func ToggleBrightness(c Color) Color {
	switch {
	case c.IsNormal():
		return c + (BrightBlack - Black)
	case c.IsBright():
		return c - (BrightBlack - Black)
	default:
		return c
	}
}

// ColorFromFgCode maps an SGR foreground parameter back to the palette.
func ColorFromFgCode(code int) (Color, bool) {
	switch {
	case code == fgDefault:
		return Default, true
	case code >= fgNormalBase && code <= fgNormalBase+7:
		return Black + Color(code-fgNormalBase), true
	case code >= fgBrightBase && code <= fgBrightBase+7:
		return BrightBlack + Color(code-fgBrightBase), true
	}
	return Default, false
}

// ParseColor resolves a colour name. Matching ignores case, dashes and
// underscores, so "bright-red", "BRIGHT_RED" and "BrightRed" are the same.
func ParseColor(name string) (Color, error) {
	key := foldName(name)
	if key == "" {
		return Default, nil
	}
	for i, n := range colorNames {
		if strings.ToLower(n) == key {
			return Color(i), nil
		}
	}
	return Default, fmt.Errorf("unknown colour %q", name)
}

// ColorNames lists every palette name in code order.
func ColorNames() []string {
	out := make([]string, len(colorNames))
	copy(out, colorNames[:])
	return out
}

func foldName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		if r == '-' || r == '_' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// MarshalText implements encoding.TextMarshaler so colours round-trip
// through config files by name.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
