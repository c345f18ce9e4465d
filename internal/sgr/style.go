package sgr

import (
	"fmt"
	"strings"
)

// Style is a text attribute. Values equal their SGR parameter.
type Style uint8

const (
	Reset Style = iota
	Bold
	Faint
	Italic
	Underline
	Blink
	BlinkRapid
	Inverse
	Hidden
	Strikethrough

	numStyles
)

// MaxStyles is the number of styles a Format carries. Extra styles are
// dropped.
const MaxStyles = 8

var styleNames = [numStyles]string{
	"Reset", "Bold", "Faint", "Italic", "Underline",
	"Blink", "BlinkRapid", "Inverse", "Hidden", "Strikethrough",
}

func (s Style) String() string {
	if s >= numStyles {
		return fmt.Sprintf("Style(%d)", uint8(s))
	}
	return styleNames[s]
}

// PadUnsafe reports whether padding cells rendered with s would be visible
// (underlined, struck through, blinking or hidden), so pad cells must be
// written outside the style.
func (s Style) PadUnsafe() bool {
	switch s {
	case Reset, Underline, Blink, BlinkRapid, Hidden, Strikethrough:
		return true
	}
	return false
}

// TruncUnsafe reports whether s would hide or garble the cut marker.
func (s Style) TruncUnsafe() bool {
	switch s {
	case Reset, Hidden, Strikethrough:
		return true
	}
	return false
}

// ParseStyle resolves a style name, ignoring case, dashes and underscores.
func ParseStyle(name string) (Style, error) {
	key := foldName(name)
	for i, n := range styleNames {
		if strings.ToLower(n) == key {
			return Style(i), nil
		}
	}
	return Reset, fmt.Errorf("unknown style %q", name)
}

// Styles is a fixed-size style list. It is a value type so a Format can be
// copied and edited without aliasing.
type Styles struct {
	list [MaxStyles]Style
	n    uint8
}

// NewStyles returns a list holding the first MaxStyles of ss.
func NewStyles(ss ...Style) Styles {
	var l Styles
	for _, s := range ss {
		if !l.Add(s) {
			break
		}
	}
	return l
}

// ParseStyles parses a comma separated list of style names. Empty entries
// are skipped.
func ParseStyles(list string) (Styles, error) {
	var l Styles
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := ParseStyle(part)
		if err != nil {
			return Styles{}, err
		}
		l.Add(s)
	}
	return l, nil
}

// Len returns the number of styles.
func (l Styles) Len() int { return int(l.n) }

// At returns the i-th style.
func (l Styles) At(i int) Style { return l.list[i] }

// Slice returns a copy of the styles.
func (l Styles) Slice() []Style {
	out := make([]Style, l.n)
	copy(out, l.list[:l.n])
	return out
}

// Add appends s and reports whether there was room.
func (l *Styles) Add(s Style) bool {
	if int(l.n) >= MaxStyles {
		return false
	}
	l.list[l.n] = s
	l.n++
	return true
}

// Clear empties the list.
func (l *Styles) Clear() { l.n = 0 }

// RemoveIf drops every style matching pred, keeping order, and returns the
// number removed.
func (l *Styles) RemoveIf(pred func(Style) bool) int {
	w := uint8(0)
	for r := uint8(0); r < l.n; r++ {
		if !pred(l.list[r]) {
			l.list[w] = l.list[r]
			w++
		}
	}
	removed := int(l.n - w)
	l.n = w
	return removed
}

// Any reports whether pred holds for some style.
func (l Styles) Any(pred func(Style) bool) bool {
	for i := uint8(0); i < l.n; i++ {
		if pred(l.list[i]) {
			return true
		}
	}
	return false
}

// Has reports whether s is in the list.
func (l Styles) Has(s Style) bool {
	return l.Any(func(x Style) bool { return x == s })
}

func (l Styles) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i := uint8(0); i < l.n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.list[i].String())
	}
	b.WriteByte('}')
	return b.String()
}
