package cell

import (
	"io"

	"github.com/Iron-Ham/termout/internal/buffer"
	"github.com/Iron-Ham/termout/internal/config"
	"github.com/Iron-Ham/termout/internal/sgr"
	"github.com/Iron-Ham/termout/internal/trim"
)

// Renderer applies formats against a terminal context. It is safe for
// concurrent use; each render borrows its own scratch arena.
type Renderer struct {
	ctx    *config.Context
	arenas *buffer.ArenaPool
}

// NewRenderer returns a renderer for ctx whose scratch buffers hold
// scratchSize bytes. A non-positive size uses buffer.DefaultScratchSize.
func NewRenderer(ctx *config.Context, scratchSize int) *Renderer {
	if ctx == nil {
		ctx = config.NewContext()
	}
	return &Renderer{ctx: ctx, arenas: buffer.NewArenaPool(scratchSize)}
}

// Context returns the terminal context the renderer consults.
func (r *Renderer) Context() *config.Context { return r.ctx }

// ANSI reports whether escape sequences go to the current output.
func (r *Renderer) ANSI() bool { return r.ctx.CanUseANSI(r.ctx.Output()) }

// TTY reports whether the current output is a usable terminal.
func (r *Renderer) TTY() bool { return r.ctx.CanUseTTY(r.ctx.Output()) }

// field is a measured, trimmed render. text aliases an arena buffer.
type field struct {
	text      []byte
	width     int
	cutStart  int
	cutEnd    int
	truncated bool
}

// Apply renders values into one field on w and records the printed width
// on c, which may be nil.
//
// A hidden field only applies the end policy. A field that needs no
// measuring is written straight through and its width is recorded as
// Unset. Otherwise the values are rendered, trimmed to the width and
// padded according to the alignment.
func (r *Renderer) Apply(w io.Writer, f Format, c *Cell, values ...any) error {
	if c == nil {
		c = &Cell{}
	}
	out := writer{w: w}
	c.width = 0

	if f.Width == Hidden {
		r.finish(&out, &f, c, "")
		return out.err
	}

	arena := r.arenas.Get()
	defer r.arenas.Put(arena)

	style, styled := r.Style(f)
	padOutside := styled && style.HasPadUnsafe()
	reset := ""
	if styled && !padOutside {
		out.str(style.Sequence())
		reset = style.Reset()
	}

	if fl, ok := r.render(arena, &f, values); ok {
		left, right := pads(&f, fl.width)
		out.repeat(f.Pad, left)
		if padOutside {
			out.str(style.Sequence())
		}
		r.writeField(&out, &f, style, styled, fl)
		if padOutside {
			out.str(style.Reset())
		}
		out.repeat(f.Pad, right)
		if fl.width == Unset {
			c.width = Unset
		} else {
			c.width = fl.width + left + right
		}
	} else {
		if padOutside {
			out.str(style.Sequence())
		}
		if out.err == nil {
			out.err = writeValues(w, arena.Scratch(buffer.PurposeRaw), f.Manip, values...)
		}
		if padOutside {
			out.str(style.Reset())
		}
		c.width = Unset
	}

	r.finish(&out, &f, c, reset)
	return out.err
}

// Measure returns the width Apply would record for values, without writing.
func (r *Renderer) Measure(f Format, values ...any) int {
	c := Cell{}
	if f.Width != Hidden {
		arena := r.arenas.Get()
		defer r.arenas.Put(arena)
		fl, ok := r.render(arena, &f, values)
		if !ok || fl.width == Unset {
			return Unset
		}
		left, right := pads(&f, fl.width)
		c.width = fl.width + left + right
	}
	if f.padsEnd() {
		c.width++
	}
	return c.width
}

// Clear erases the last render of c by moving back over it, overwriting it
// with blanks and moving back again. It does nothing without ANSI, for a
// field ending in a newline, or when the printed width is not known.
func (r *Renderer) Clear(w io.Writer, f Format, c *Cell) error {
	if f.End == EndNewline || !r.ANSI() {
		return nil
	}
	n := c.width
	c.width = Unset
	return r.ForceClear(w, n)
}

// ForceClear erases the n columns left of the cursor.
func (r *Renderer) ForceClear(w io.Writer, n int) error {
	if n < 1 || !r.ANSI() {
		return nil
	}
	out := writer{w: w}
	out.str(sgr.ClearLeft(n))
	out.flush()
	return out.err
}

// Style returns the field style adjusted for the terminal colours and
// whether escape sequences are written at all.
func (r *Renderer) Style(f Format) (sgr.Format, bool) {
	if !r.ANSI() || f.Style.Plain {
		return f.Style, false
	}
	return f.Style.SafeContrast(r.ctx.TTYForeground, r.ctx.TTYBackground, true), true
}

// render runs the measuring pipeline: values into the raw slot, then
// trimmed and normalized into the trim slot. It reports false when the
// format does not need measuring.
func (r *Renderer) render(arena *buffer.Arena, f *Format, values []any) (field, bool) {
	if !f.ShouldBuffer() {
		return field{}, false
	}
	raw := arena.Scratch(buffer.PurposeRaw)
	AppendValues(raw, f.Manip, values...)
	if raw.Truncated() {
		r.ctx.Warn(config.LoggingBufferFailed)
		raw.Finalize(false)
	}

	utf8 := r.ctx.CanUseUTF8() && f.UTF8
	src := raw.View()
	if !utf8 && !isASCII(src) {
		r.ctx.Warn(config.Utf8NotInitialized)
	}

	opts := trim.Options{
		CutLen:    f.Truncate.CutLen,
		CutChar:   f.Truncate.CutChar,
		Direction: f.Truncate.Direction,
		Normalize: f.ShouldNormalize(true),
		NormChar:  f.NormChar,
		UTF8:      utf8,
		NoEmoji:   !(f.Emoji && r.ctx.CanUseEmoji()),
	}
	if f.Truncatable() {
		opts.Width = f.Width
	}

	dst := arena.Scratch(buffer.PurposeTrim)
	res := trim.Trim(dst, src, opts)
	if dst.Truncated() {
		r.ctx.Warn(config.LoggingBufferFailed)
	}
	return field{
		text:      dst.Bytes(),
		width:     res.Width,
		cutStart:  res.CutStart,
		cutEnd:    res.CutEnd,
		truncated: res.Truncated,
	}, true
}

// writeField writes the trimmed text, switching to the cut style around
// the cut marker.
func (r *Renderer) writeField(out *writer, f *Format, style sgr.Format, styled bool, fl field) {
	if !styled || !fl.truncated || fl.cutEnd <= fl.cutStart || fl.cutEnd > len(fl.text) {
		out.bytes(fl.text)
		return
	}
	cut := f.Truncate.Style.SafeTruncate(style)
	out.bytes(fl.text[:fl.cutStart])
	out.str(style.Reset())
	out.str(cut.Sequence())
	out.bytes(fl.text[fl.cutStart:fl.cutEnd])
	out.str(cut.Reset())
	out.str(style.Sequence())
	out.bytes(fl.text[fl.cutEnd:])
}

// finish applies the end policy. The style is reset after the end pad and
// before a newline or flush.
func (r *Renderer) finish(out *writer, f *Format, c *Cell, reset string) {
	if f.padsEnd() {
		out.byte(f.EndPad)
		if c.width != Unset {
			c.width++
		}
	}
	out.str(reset)
	switch f.End {
	case EndNewline:
		out.byte('\n')
	case EndFlush, EndPadThenFlush:
		out.flush()
	}
}

// padsEnd reports whether the end policy adds a pad column.
func (f *Format) padsEnd() bool {
	return (f.End == EndPad || f.End == EndPadThenFlush) && !f.HasWidth()
}

// pads splits the free columns of the field for the alignment.
func pads(f *Format, tw int) (left, right int) {
	if tw == Unset {
		return 0, 0
	}
	padd := max(0, max(0, f.Width)-tw)
	switch f.Align {
	case Right:
		return padd, 0
	case Centred:
		left = padd / 2
		return left, padd - left
	default:
		return 0, padd
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// writer keeps the first write error and drops everything after it.
type writer struct {
	w   io.Writer
	err error
}

func (o *writer) str(s string) {
	if o.err == nil && s != "" {
		_, o.err = io.WriteString(o.w, s)
	}
}

func (o *writer) bytes(p []byte) {
	if o.err == nil && len(p) > 0 {
		_, o.err = o.w.Write(p)
	}
}

func (o *writer) byte(c byte) {
	o.bytes([]byte{c})
}

func (o *writer) repeat(c byte, n int) {
	var block [32]byte
	for i := range block {
		block[i] = c
	}
	for n > 0 && o.err == nil {
		k := min(n, len(block))
		o.bytes(block[:k])
		n -= k
	}
}

type flusher interface {
	Flush() error
}

func (o *writer) flush() {
	if f, ok := o.w.(flusher); ok && o.err == nil {
		o.err = f.Flush()
	}
}
