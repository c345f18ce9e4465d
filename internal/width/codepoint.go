// Package width measures UTF-8 text in terminal columns.
//
// Text is decoded into codepoints, each tagged by the role it can play in an
// emoji or flag sequence, and codepoints are grouped into display units: the
// smallest byte ranges a renderer may keep or drop as a whole. A unit never
// splits a regional indicator pair, an emoji base from its modifier or
// variation selector, or a zero width joiner chain.
//
// Widths of single codepoints come from go-runewidth with East Asian
// ambiguous characters treated as narrow, which matches wcwidth in a UTF-8
// locale. Widths of multi-codepoint sequences follow the unit rules instead.
package width

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Unknown is returned when a width cannot be guaranteed.
const Unknown = -1

// Tag classifies a codepoint by the role it can play inside a display unit.
type Tag uint8

const (
	Invalid Tag = iota
	VariationSelector
	ZeroWidthJoiner
	RegionalIndicator
	EmojiModifier
	EmojiBase
	Other
)

var tagNames = [...]string{
	Invalid:           "Invalid",
	VariationSelector: "VariationSelector",
	ZeroWidthJoiner:   "ZeroWidthJoiner",
	RegionalIndicator: "RegionalIndicator",
	EmojiModifier:     "EmojiModifier",
	EmojiBase:         "EmojiBase",
	Other:             "Other",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "Unknown"
}

type runeRange struct {
	lo, hi rune
}

// emojiRanges are the blocks whose codepoints start or continue an emoji
// chain. Order is irrelevant; overlapping entries are harmless.
var emojiRanges = [...]runeRange{
	{0x231A, 0x231B},   // watch, hourglass
	{0x23E9, 0x23F3},   // media controls, clocks
	{0x25A0, 0x25FF},   // geometric shapes
	{0x2600, 0x26FF},   // miscellaneous symbols
	{0x2640, 0x2642},   // gender signs
	{0x2700, 0x27BF},   // dingbats
	{0x1F000, 0x1F02F}, // mahjong tiles
	{0x1F0A0, 0x1F0FF}, // playing cards
	{0x1F100, 0x1F1FF}, // enclosed alphanumerics
	{0x1F200, 0x1F2FF}, // enclosed ideographic
	{0x1F300, 0x1F5FF}, // pictographs
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F680, 0x1F6FF}, // transport and map
	{0x1F700, 0x1F77F}, // alchemical
	{0x1F780, 0x1F7FF}, // geometric shapes extended
	{0x1F800, 0x1F8FF}, // supplemental arrows
	{0x1F900, 0x1F9FF}, // supplemental pictographs
	{0x1FA00, 0x1FA6F}, // chess symbols
	{0x1FA70, 0x1FAFF}, // pictographs extended
	{0x1FB00, 0x1FBFF}, // legacy computing
}

// Classify returns the tag of r. Regional indicators and modifiers are
// checked before the emoji base table, which also covers them.
func Classify(r rune) Tag {
	switch {
	case r >= 0x1F1E6 && r <= 0x1F1FF:
		return RegionalIndicator
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return EmojiModifier
	case isEmojiBase(r):
		return EmojiBase
	case r == 0xFE0F:
		return VariationSelector
	case r == 0x200D:
		return ZeroWidthJoiner
	default:
		return Other
	}
}

func isEmojiBase(r rune) bool {
	for _, rr := range emojiRanges {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}

// narrow treats ambiguous-width characters as one column regardless of the
// process locale, so results do not depend on RUNEWIDTH_EASTASIAN or LANG.
var narrow = &runewidth.Condition{EastAsianWidth: false}

// RuneWidth is the wcwidth equivalent: -1 for C0/C1 controls and DEL,
// otherwise 0, 1 or 2 columns.
func RuneWidth(r rune) int {
	if r < 0x20 || (r >= 0x7F && r < 0xA0) {
		return -1
	}
	return narrow.RuneWidth(r)
}

// Codepoint is one decoded position of a byte string.
type Codepoint struct {
	Rune  rune
	Width int
	Len   int
	Tag   Tag
}

// Decode decodes the codepoint at s[off:]. Malformed UTF-8 yields an Invalid
// codepoint of width 1 and length 1; a non-printable scalar yields an
// Invalid codepoint of width 1 spanning its encoded length.
func Decode(s string, off int) Codepoint {
	if off >= len(s) {
		return Codepoint{Rune: utf8.RuneError, Width: 1, Len: 0, Tag: Invalid}
	}
	r, n := utf8.DecodeRuneInString(s[off:])
	if r == utf8.RuneError && n <= 1 {
		return Codepoint{Rune: r, Width: 1, Len: 1, Tag: Invalid}
	}
	w := RuneWidth(r)
	if w < 0 {
		return Codepoint{Rune: r, Width: 1, Len: n, Tag: Invalid}
	}
	return Codepoint{Rune: r, Width: w, Len: n, Tag: Classify(r)}
}
