// Package trim cuts text to a terminal column budget without splitting
// display units.
package trim

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/termout/internal/buffer"
	"github.com/Iron-Ham/termout/internal/width"
)

// Direction selects which end of the text survives a cut.
type Direction uint8

const (
	// KeepLeft keeps the head and cuts the tail: "Hello W...".
	KeepLeft Direction = iota
	// KeepRight keeps the tail and cuts the head: "...o World".
	KeepRight
)

func (d Direction) String() string {
	if d == KeepRight {
		return "right"
	}
	return "left"
}

// ParseDirection parses "left" or "right", the side of the text that is
// kept.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return KeepLeft, nil
	case "right":
		return KeepRight, nil
	}
	return KeepLeft, fmt.Errorf("unknown trim direction %q (valid: left, right)", s)
}

// Options configure one trim.
type Options struct {
	// Width is the target column count. Values <= 0 disable cutting.
	Width int
	// CutLen is the number of columns reserved for the cut marker.
	CutLen int
	// CutChar fills the cut marker.
	CutChar   byte
	Direction Direction
	// Normalize replaces invalid units (or, without UTF8, non-printable
	// bytes) with NormChar so the width stays known.
	Normalize bool
	NormChar  byte
	// UTF8 measures display units; otherwise each byte is one column.
	UTF8 bool
	// NoEmoji replaces emoji units with NormChar repeated to the unit width.
	NoEmoji bool
}

// Result describes what Trim wrote.
type Result struct {
	// Written is the number of bytes appended to the destination.
	Written int
	// Width is the number of columns written, or width.Unknown.
	Width int
	// Truncated is set when a cut marker was emitted.
	Truncated bool
	// CutStart and CutEnd delimit the cut marker in the written bytes,
	// relative to the first byte Trim appended. Both are zero when there
	// was no cut.
	CutStart, CutEnd int
}

// Measure returns the width src would occupy under opts, before cutting.
func Measure(src string, opts Options) int {
	if !opts.UTF8 {
		return width.ASCIIWidth(src, opts.Normalize)
	}
	return width.TerminalWidth(src, opts.Normalize)
}

// Trim appends src to dst, cut to opts.Width columns when it is wider.
//
// A cut result is exactly opts.Width columns: content columns followed (or,
// with KeepRight, preceded) by cut marker columns. The marker takes CutLen
// columns plus any column left over because the next unit was too wide to
// fit. Text that fits is appended unchanged apart from normalization. When
// the width cannot be known the text is appended as is and Width is
// width.Unknown.
func Trim(dst *buffer.Raw, src string, opts Options) Result {
	start := dst.Len()
	total := Measure(src, opts)
	if total == width.Unknown {
		dst.AppendString(src)
		return Result{Written: dst.Len() - start, Width: width.Unknown}
	}
	if opts.Width <= 0 || total <= opts.Width {
		emit(dst, src, opts)
		return Result{Written: dst.Len() - start, Width: total}
	}

	cut := min(max(opts.CutLen, 0), opts.Width)
	budget := opts.Width - cut
	res := Result{Width: opts.Width, Truncated: true}

	if opts.Direction == KeepRight {
		off, kept := suffix(src, total, budget, opts)
		markCells := opts.Width - kept
		res.CutStart = 0
		dst.AppendRepeat(opts.CutChar, markCells)
		res.CutEnd = dst.Len() - start
		emit(dst, src[off:], opts)
	} else {
		end, kept := prefix(src, budget, opts)
		emit(dst, src[:end], opts)
		res.CutStart = dst.Len() - start
		dst.AppendRepeat(opts.CutChar, opts.Width-kept)
		res.CutEnd = dst.Len() - start
	}
	res.Written = dst.Len() - start
	return res
}

// prefix returns the byte length and width of the longest run of whole
// units from the start of src that fits in budget columns.
func prefix(src string, budget int, opts Options) (end, cells int) {
	if !opts.UTF8 {
		n := min(budget, len(src))
		return n, n
	}
	for u := range width.Units(src) {
		w := unitWidth(u)
		if cells+w > budget {
			break
		}
		cells += w
		end = u.Offset + u.Len
	}
	return end, cells
}

// suffix returns the byte offset and width of the longest run of whole units
// ending at the end of src that fits in budget columns.
func suffix(src string, total, budget int, opts Options) (off, cells int) {
	if !opts.UTF8 {
		n := min(budget, len(src))
		return len(src) - n, n
	}
	remaining := total
	for u := range width.Units(src) {
		if remaining <= budget {
			return u.Offset, remaining
		}
		remaining -= unitWidth(u)
	}
	return len(src), 0
}

func unitWidth(u width.Unit) int {
	if !u.Valid {
		return 1
	}
	return u.Width
}

// emit appends src applying normalization and emoji replacement.
func emit(dst *buffer.Raw, src string, opts Options) {
	if !opts.UTF8 {
		if !opts.Normalize {
			dst.AppendString(src)
			return
		}
		for i := 0; i < len(src); i++ {
			if width.IsPrintableASCII(src[i]) {
				dst.AppendByte(src[i])
			} else {
				dst.AppendByte(opts.NormChar)
			}
		}
		return
	}
	if !opts.Normalize && !opts.NoEmoji {
		dst.AppendString(src)
		return
	}
	for u := range width.Units(src) {
		switch {
		case !u.Valid && opts.Normalize:
			dst.AppendByte(opts.NormChar)
		case opts.NoEmoji && isEmojiUnit(src, u):
			dst.AppendRepeat(opts.NormChar, u.Width)
		default:
			dst.AppendString(src[u.Offset : u.Offset+u.Len])
		}
	}
}

func isEmojiUnit(src string, u width.Unit) bool {
	switch width.Decode(src, u.Offset).Tag {
	case width.EmojiBase, width.EmojiModifier, width.RegionalIndicator:
		return true
	}
	return false
}
