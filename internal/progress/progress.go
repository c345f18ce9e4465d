// Package progress draws single-line progress indicators that redraw only
// what changed between ticks.
//
// A Bar is driven by calling Tick once per unit of work plus once more for
// the final frame: the first call draws the empty indicator and the call
// that reaches Cycles draws the full one. After the final frame the bar is
// ready to start over.
package progress

import (
	"bytes"
	"io"
	"strconv"

	"github.com/Iron-Ham/termout/internal/cell"
	"github.com/Iron-Ham/termout/internal/sgr"
)

// Variant selects how progress is drawn.
type Variant uint8

const (
	// VariantBar redraws a bracketed bar of marks and unmarks.
	VariantBar Variant = iota
	// VariantAlternate appends marks and never moves the cursor back.
	VariantAlternate
	// VariantPercent redraws a right-aligned percentage.
	VariantPercent
)

func (v Variant) String() string {
	switch v {
	case VariantBar:
		return "bar"
	case VariantAlternate:
		return "alt"
	case VariantPercent:
		return "percent"
	default:
		return "unknown"
	}
}

// ParseVariant maps "bar", "alt" (or "alternate") and "percent" to a
// Variant.
func ParseVariant(s string) (Variant, bool) {
	switch s {
	case "bar":
		return VariantBar, true
	case "alt", "alternate":
		return VariantAlternate, true
	case "percent":
		return VariantPercent, true
	}
	return VariantBar, false
}

// BarGlyphs are the pieces of VariantBar.
type BarGlyphs struct {
	Prefix, Mark, Unmark, Suffix string
}

// AltGlyphs are the pieces of VariantAlternate.
type AltGlyphs struct {
	Prefix, Mark, Suffix string
}

// PercentGlyphs are the pieces of VariantPercent. Width is the minimum
// number of columns for the number; it is at least 3.
type PercentGlyphs struct {
	Prefix string
	Width  int
	Suffix string
}

const (
	DefaultCycles = 10
	DefaultLength = 10
)

// Bar is a progress indicator. The embedded Format supplies the style and
// the UTF-8 and emoji permissions used to measure and print the glyphs.
//
// A Bar is not safe for concurrent use.
type Bar struct {
	cell.Format

	Variant Variant
	// Cycles is the number of ticks between the first and the final frame.
	Cycles int
	// Length is the number of mark slots of VariantBar and VariantAlternate.
	Length int
	// Hide clears the indicator after the final frame.
	Hide bool

	Blocks  BarGlyphs
	Dots    AltGlyphs
	Percent PercentGlyphs

	r       *cell.Renderer
	count   int
	printed int
	prev    int
	g       glyphs
	frame   bytes.Buffer
}

// glyphs are rendered pieces with their widths, cached on the first frame.
type glyphs struct {
	prefix, mark, unmark, suffix     string
	prefixW, markW, unmarkW, suffixW int
}

// New returns a bar with the default glyphs: "[##   ] " for VariantBar,
// "Progress ... " for VariantAlternate and "Progress:  40% " for
// VariantPercent.
func New(r *cell.Renderer) *Bar {
	f := cell.NewFormat()
	f.Style = sgr.New(sgr.Default, sgr.Default, sgr.Bold)
	return &Bar{
		Format:  f,
		Variant: VariantBar,
		Cycles:  DefaultCycles,
		Length:  DefaultLength,
		Hide:    true,
		Blocks:  BarGlyphs{Prefix: "[", Mark: "#", Unmark: " ", Suffix: "] "},
		Dots:    AltGlyphs{Prefix: "Progress ", Mark: ".", Suffix: " "},
		Percent: PercentGlyphs{Prefix: "Progress: ", Width: 3, Suffix: "% "},
		r:       r,
		printed: cell.Unset,
	}
}

// Count returns the number of ticks since the first frame.
func (b *Bar) Count() int { return b.count }

// Running reports whether the first frame was drawn and the final one was
// not.
func (b *Bar) Running() bool { return b.printed != cell.Unset }

// Reset forgets the drawn state so the next Tick draws a first frame. It
// does not erase anything already on screen.
func (b *Bar) Reset() {
	b.count = 0
	b.prev = 0
	b.printed = cell.Unset
}

// Tick advances the bar by one and draws the frame if anything changed.
// Nothing is drawn when Cycles or Length is not positive.
//
// Without ANSI the bar is drawn as VariantAlternate when the output is a
// terminal, and not at all otherwise.
func (b *Bar) Tick(w io.Writer) error {
	if b.Cycles <= 0 || b.Length <= 0 {
		return nil
	}
	if b.printed == cell.Unset {
		b.printed = 0
		b.count = 0
	} else {
		b.count++
	}

	b.frame.Reset()
	variant := b.Variant
	if !b.r.ANSI() {
		if !b.r.TTY() {
			b.finishSilently()
			return nil
		}
		variant = VariantAlternate
	}
	var drawn bool
	switch variant {
	case VariantAlternate:
		drawn = b.drawDots()
	case VariantPercent:
		drawn = b.drawPercent()
	default:
		drawn = b.drawBlocks()
	}
	if !drawn {
		return nil
	}
	if _, err := b.frame.WriteTo(w); err != nil {
		return err
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Done ticks straight to the final frame.
func (b *Bar) Done(w io.Writer) error {
	if b.Cycles <= 0 || b.Length <= 0 {
		return nil
	}
	if !b.Running() {
		if err := b.Tick(w); err != nil {
			return err
		}
	}
	b.count = max(b.count, b.Cycles-1)
	return b.Tick(w)
}

func (b *Bar) finishSilently() {
	if b.count >= b.Cycles {
		b.printed = cell.Unset
	}
}

func (b *Bar) drawBlocks() bool {
	start := b.count == 0
	if start {
		b.prev = 0
		b.g = glyphs{}
		b.g.prefix, b.g.prefixW = b.glyph(b.Blocks.Prefix)
		b.g.mark, b.g.markW = b.glyph(b.Blocks.Mark)
		b.g.unmark, b.g.unmarkW = b.glyph(b.Blocks.Unmark)
		b.g.suffix, b.g.suffixW = b.glyph(b.Blocks.Suffix)
	}
	finish := b.count >= b.Cycles
	slider := b.Length
	if !finish {
		slider = b.slider()
	}
	if !start && !finish && slider <= b.prev {
		return false
	}
	unmarks := max(0, b.Length-slider)
	b.prev = slider

	b.clear(b.printed)
	style, reset := b.style()
	b.frame.WriteString(style)
	b.frame.WriteString(b.g.prefix)
	repeat(&b.frame, b.g.mark, slider)
	repeat(&b.frame, b.g.unmark, unmarks)
	b.frame.WriteString(b.g.suffix)
	b.frame.WriteString(reset)
	b.printed = b.g.prefixW + b.g.suffixW + b.g.markW*slider + b.g.unmarkW*unmarks
	b.end(finish)
	return true
}

func (b *Bar) drawDots() bool {
	start := b.count == 0
	if start {
		b.prev = 0
		b.g = glyphs{}
		b.g.prefix, b.g.prefixW = b.glyph(b.Dots.Prefix)
		b.g.mark, b.g.markW = b.glyph(b.Dots.Mark)
		b.g.suffix, b.g.suffixW = b.glyph(b.Dots.Suffix)
	}
	finish := b.count >= b.Cycles
	slider := b.Length
	if !finish {
		slider = b.slider()
	}
	step := max(0, slider-b.prev)
	if !start && !finish && step == 0 {
		return false
	}
	b.prev = slider

	style, reset := b.style()
	b.frame.WriteString(style)
	if start {
		b.frame.WriteString(b.g.prefix)
		b.printed = b.g.prefixW
	}
	repeat(&b.frame, b.g.mark, step)
	b.printed += b.g.markW * step
	if finish {
		b.frame.WriteString(b.g.suffix)
		b.printed += b.g.suffixW
	}
	b.end(finish)
	b.frame.WriteString(reset)
	return true
}

func (b *Bar) drawPercent() bool {
	start := b.count == 0
	if start {
		b.prev = 0
		b.g = glyphs{}
		b.g.prefix, b.g.prefixW = b.glyph(b.Percent.Prefix)
		b.g.suffix, b.g.suffixW = b.glyph(b.Percent.Suffix)
	}
	pct := b.percentage()
	finish := b.count >= b.Cycles
	if !start && !finish && pct <= b.prev {
		return false
	}
	b.prev = pct

	numW := max(3, b.Percent.Width)
	digits := strconv.Itoa(pct)
	b.clear(b.printed)
	style, reset := b.style()
	b.frame.WriteString(style)
	b.frame.WriteString(b.g.prefix)
	repeat(&b.frame, " ", max(0, numW-len(digits)))
	b.frame.WriteString(digits)
	b.frame.WriteString(b.g.suffix)
	b.frame.WriteString(reset)
	b.printed = b.g.prefixW + numW + b.g.suffixW
	b.end(finish)
	return true
}

// end hides the indicator on the final frame and marks the bar stopped.
func (b *Bar) end(finish bool) {
	if !finish {
		return
	}
	if b.Hide {
		b.clear(b.printed)
	}
	b.printed = cell.Unset
}

func (b *Bar) clear(n int) {
	if n > 0 && b.r.ANSI() {
		b.frame.WriteString(sgr.ClearLeft(n))
	}
}

func (b *Bar) style() (seq, reset string) {
	style, ok := b.r.Style(b.Format)
	if !ok {
		return "", ""
	}
	return style.Sequence(), style.Reset()
}

// glyph renders s through the field pipeline so it is normalized the same
// way the terminal context demands, and returns it with its width.
func (b *Bar) glyph(s string) (string, int) {
	f := b.Format
	f.Width = cell.Unset
	f.Normalize = cell.Required
	f.End = cell.EndNone
	f.Style.Plain = true

	var out bytes.Buffer
	var c cell.Cell
	if err := b.r.Apply(&out, f, &c, s); err != nil || c.Width() == cell.Unset {
		return s, len(s)
	}
	return out.String(), c.Width()
}

func (b *Bar) slider() int {
	return Bresenham(b.count, b.Cycles, b.Length)
}

func (b *Bar) percentage() int {
	return min(max(b.count*100/max(1, b.Cycles), 0), 100)
}

func repeat(buf *bytes.Buffer, s string, n int) {
	for range n {
		buf.WriteString(s)
	}
}

// Bresenham returns the y of the integer line from (0, 0) to (dx, dy) at
// x. It returns 0 for a negative x or a degenerate line and dy once x
// runs past the line.
func Bresenham(x, dx, dy int) int {
	if x < 0 || dx <= 0 || dy <= 0 {
		return 0
	}
	steep := dx < dy
	if steep {
		dx, dy = dy, dx
	}
	errStep := 2 * dy
	acc := 0
	y := 0
	for i := 0; i < dx; i++ {
		if !steep && i == x {
			return y
		}
		if steep && y == x {
			return i
		}
		acc += errStep
		if acc > dx {
			y++
			acc -= 2 * dx
		}
	}
	return dy
}
