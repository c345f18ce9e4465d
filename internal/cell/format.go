// Package cell renders values into styled, aligned fields of a fixed
// terminal width.
//
// A Format describes the field: width, alignment, truncation, control
// character normalization, number formatting, ANSI style and what to do
// after the field (pad, flush, newline). A Cell remembers how many columns
// its last render occupied so the field can be cleared and redrawn in
// place. A Renderer applies formats against the terminal context.
package cell

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/termout/internal/sgr"
	"github.com/Iron-Ham/termout/internal/trim"
	"github.com/Iron-Ham/termout/internal/width"
)

const (
	// Unset is a width that was not specified, or a render whose width is
	// not known.
	Unset = width.Unknown
	// Hidden is a width that prints nothing but the end policy.
	Hidden = 0
)

// Align positions content inside a field wider than the content.
type Align uint8

const (
	Left Align = iota
	Right
	Centred
)

func (a Align) String() string {
	switch a {
	case Right:
		return "right"
	case Centred:
		return "centre"
	default:
		return "left"
	}
}

// ParseAlign parses "left", "right" or "centre" ("center" and "centred"
// are accepted too).
func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return Left, nil
	case "right":
		return Right, nil
	case "centre", "center", "centred", "centered":
		return Centred, nil
	}
	return Left, fmt.Errorf("unknown alignment %q", s)
}

// Normalize decides whether control bytes and invalid text are replaced.
type Normalize uint8

const (
	Forbidden Normalize = iota
	Allowed
	Required
)

func (n Normalize) String() string {
	switch n {
	case Forbidden:
		return "forbidden"
	case Required:
		return "required"
	default:
		return "allowed"
	}
}

// ParseNormalize parses a Normalize name.
func ParseNormalize(s string) (Normalize, error) {
	for _, n := range [...]Normalize{Forbidden, Allowed, Required} {
		if strings.EqualFold(strings.TrimSpace(s), n.String()) {
			return n, nil
		}
	}
	return Allowed, fmt.Errorf("unknown normalize policy %q", s)
}

// EndPolicy is applied after the field.
type EndPolicy uint8

const (
	EndNone EndPolicy = iota
	EndFlush
	EndNewline
	// EndPad writes one pad character after a field without width.
	EndPad
	// EndPadThenFlush is EndPad followed by a flush.
	EndPadThenFlush
)

func (e EndPolicy) String() string {
	switch e {
	case EndNone:
		return "none"
	case EndFlush:
		return "flush"
	case EndNewline:
		return "newline"
	case EndPad:
		return "pad"
	default:
		return "pad-flush"
	}
}

// ParseEndPolicy parses an EndPolicy name: none, flush, newline, pad or
// pad-flush.
func ParseEndPolicy(s string) (EndPolicy, error) {
	for _, e := range [...]EndPolicy{EndNone, EndFlush, EndNewline, EndPad, EndPadThenFlush} {
		if strings.EqualFold(strings.TrimSpace(s), e.String()) {
			return e, nil
		}
	}
	return EndPadThenFlush, fmt.Errorf("unknown end policy %q", s)
}

// Base is the radix used for integers.
type Base uint8

const (
	Dec Base = iota
	Hex
	Oct
)

// ParseBase parses "dec", "hex" or "oct".
func ParseBase(s string) (Base, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dec":
		return Dec, nil
	case "hex":
		return Hex, nil
	case "oct":
		return Oct, nil
	}
	return Dec, fmt.Errorf("unknown base %q (valid: dec, hex, oct)", s)
}

// Truncate controls how content wider than the field is cut.
type Truncate struct {
	Enabled bool
	// CutLen is the number of marker columns. It is clamped to the width.
	CutLen  int
	CutChar byte
	// Style renders the marker.
	Style     sgr.Format
	Direction trim.Direction
}

// Limits splits w into content columns and marker columns.
func (t Truncate) Limits(w int) (safe, tail int) {
	w = max(0, w)
	tail = min(max(t.CutLen, 0), w)
	return w - tail, tail
}

// Manip controls how numbers and booleans are printed.
type Manip struct {
	// Precision is the float precision; Unset means 6.
	Precision  int
	Fixed      bool
	Scientific bool
	// BoolAlpha prints booleans as true/false instead of 1/0.
	BoolAlpha bool
	Base      Base
	// Uppercase applies to hex digits and exponent markers.
	Uppercase bool
	// ShowPos prints a '+' before non-negative decimal numbers.
	ShowPos bool
}

// Format describes one field. The zero value is a hidden field; start from
// NewFormat.
type Format struct {
	// Width is the field width in columns, Unset or Hidden.
	Width int
	Align Align
	// Pad fills alignment padding.
	Pad      byte
	Truncate Truncate
	// Normalize and NormChar control replacement of control bytes and
	// invalid text.
	Normalize Normalize
	NormChar  byte
	Manip     Manip
	Style     sgr.Format
	End       EndPolicy
	// EndPad is written by EndPad and EndPadThenFlush.
	EndPad byte
	// UTF8 and Emoji allow the field to use them when the terminal does.
	UTF8  bool
	Emoji bool
}

// CutStyle is the default truncation marker style.
var CutStyle = sgr.New(sgr.Red, sgr.Default, sgr.Underline)

// NewFormat returns the default format: no width, left aligned, truncation
// enabled with a three column '.' marker, normalization allowed, default
// colours, and a trailing pad plus flush.
func NewFormat() Format {
	return Format{
		Width: Unset,
		Align: Left,
		Pad:   ' ',
		Truncate: Truncate{
			Enabled: true,
			CutLen:  3,
			CutChar: '.',
			Style:   CutStyle,
		},
		Normalize: Allowed,
		NormChar:  '?',
		Manip:     Manip{Precision: Unset},
		End:       EndPadThenFlush,
		EndPad:    ' ',
		UTF8:      true,
		Emoji:     true,
	}
}

// HasWidth reports whether the field has a positive width.
func (f *Format) HasWidth() bool { return f.Width > 0 }

// Alignable reports whether padding applies.
func (f *Format) Alignable() bool { return f.HasWidth() }

// Truncatable reports whether content may be cut.
func (f *Format) Truncatable() bool { return f.Truncate.Enabled && f.Alignable() }

// ShouldNormalize resolves the policy; allowed is the caller's default.
func (f *Format) ShouldNormalize(allowed bool) bool {
	switch f.Normalize {
	case Required:
		return true
	case Allowed:
		return allowed
	default:
		return false
	}
}

// ShouldBuffer reports whether the field goes through the measuring
// pipeline rather than straight to the writer.
func (f *Format) ShouldBuffer() bool {
	return f.Alignable() || f.Truncatable() || f.ShouldNormalize(false)
}

// Cell is the render state of one field: the columns its last render
// occupied. The zero value has printed nothing.
type Cell struct {
	width int
}

// Width returns the columns of the last render, or Unset when unknown.
func (c *Cell) Width() int { return c.width }

// Forget marks the printed width as unknown.
func (c *Cell) Forget() { c.width = Unset }
