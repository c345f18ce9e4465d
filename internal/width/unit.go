package width

import "iter"

// Unit is a display unit: a run of codepoints a terminal draws as one
// cluster of cells.
type Unit struct {
	Offset int
	Len    int
	Width  int
	Valid  bool
}

// unitParser holds the chain state while one unit absorbs codepoints.
type unitParser struct {
	u            Unit
	inEmoji      bool
	pendingEmoji bool
	pendingFlag  bool
}

// accept reports whether cp extends the unit. State is only updated for
// accepted codepoints, except that anything arriving first is always taken.
func (p *unitParser) accept(cp Codepoint) bool {
	first := p.u.Len == 0
	switch cp.Tag {
	case Invalid:
		if first {
			p.u.Valid = false
		}
		return first

	case Other:
		if first {
			p.u.Width = cp.Width
		}
		return first

	case EmojiBase:
		if !first && !p.pendingEmoji {
			return false
		}
		if first {
			p.u.Width = cp.Width
		}
		p.inEmoji = true
		p.pendingEmoji = false
		return true

	case VariationSelector:
		if p.inEmoji {
			p.u.Width = 2
			return true
		}
		if first {
			p.u.Valid = false
		}
		return first

	case ZeroWidthJoiner:
		if p.inEmoji {
			p.pendingEmoji = true
			return true
		}
		if first {
			p.u.Valid = false
		}
		return first

	case EmojiModifier:
		if p.inEmoji {
			p.u.Width = 2
			return true
		}
		if first {
			p.u.Width = cp.Width
		}
		return first

	case RegionalIndicator:
		if first || p.pendingFlag {
			p.u.Width = 2
			p.pendingFlag = !p.pendingFlag
			return true
		}
		return false
	}
	return first
}

// ParseUnit parses the display unit starting at s[off:]. It returns false
// when off is at or past the end of s.
//
// The first codepoint seeds width and validity. An emoji base chain then
// absorbs variation selectors, modifiers and zero width joiners each followed
// by another base; a regional indicator absorbs exactly one partner. A
// continuation codepoint that opens a unit makes it Invalid with width 1.
func ParseUnit(s string, off int) (Unit, bool) {
	if off < 0 || off >= len(s) {
		return Unit{}, false
	}
	p := unitParser{u: Unit{Offset: off, Valid: true}}
	for off+p.u.Len < len(s) {
		cp := Decode(s, off+p.u.Len)
		if !p.accept(cp) {
			break
		}
		p.u.Len += max(1, cp.Len)
		if !p.u.Valid {
			p.u.Width = 1
			break
		}
	}
	return p.u, true
}

// Units iterates over the display units of s.
func Units(s string) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		for off := 0; ; {
			u, ok := ParseUnit(s, off)
			if !ok || !yield(u) {
				return
			}
			off += u.Len
		}
	}
}

// TerminalWidth returns the number of columns s occupies.
//
// Without normalize it returns Unknown as soon as an invalid unit is seen,
// signalling that the printed width cannot be guaranteed. With normalize
// every invalid unit counts as one column, the width of its placeholder.
func TerminalWidth(s string, normalize bool) int {
	total := 0
	for u := range Units(s) {
		if !u.Valid && !normalize {
			return Unknown
		}
		total += u.Width
	}
	return total
}

// ASCIIWidth measures s when UTF-8 output is disabled: each printable ASCII
// byte is one column. Any other byte makes the width Unknown unless
// normalize is set, in which case it counts as one placeholder column.
func ASCIIWidth(s string, normalize bool) int {
	for i := 0; i < len(s); i++ {
		if !IsPrintableASCII(s[i]) && !normalize {
			return Unknown
		}
	}
	return len(s)
}

// IsPrintableASCII reports whether b is in the range 0x20..0x7E.
func IsPrintableASCII(b byte) bool {
	return b >= 0x20 && b < 0x7F
}
