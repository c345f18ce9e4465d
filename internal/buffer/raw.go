// Package buffer provides fixed-capacity byte buffers that never grow.
//
// A Raw buffer accepts bytes until its visible capacity (capacity minus one
// byte reserved for a terminating NUL) is exhausted, then drops the rest,
// sets its truncated flag and writes a "..." cut marker over its tail. It is
// the scratch storage every renderer stage writes into, so nothing on the
// render path allocates once a buffer exists.
package buffer

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/Iron-Ham/termout/internal/errors"
)

// MinCapacity is the smallest capacity New accepts: a cut marker with a
// newline plus the terminating NUL.
const MinCapacity = 5

const (
	cutMarker   = "..."
	cutMarkerNL = "...\n"
)

// Status is a bit set describing a buffer's state.
type Status uint8

const (
	// Empty is set when no bytes are held.
	Empty Status = 1 << iota
	// Truncated is set once a write was cut short.
	Truncated
	// HasNUL is set once a fragment carried an embedded NUL byte.
	HasNUL
)

// Has reports whether all bits in flag are set.
func (s Status) Has(flag Status) bool { return s&flag == flag }

// String renders the set flags joined by '|', or "ok".
func (s Status) String() string {
	var parts []string
	if s.Has(Empty) {
		parts = append(parts, "empty")
	}
	if s.Has(Truncated) {
		parts = append(parts, "truncated")
	}
	if s.Has(HasNUL) {
		parts = append(parts, "nul")
	}
	if len(parts) == 0 {
		return "ok"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "|" + p
	}
	return out
}

// Raw is a bounded byte buffer of fixed capacity. The zero value is not
// usable; create buffers with New.
//
// Raw is not safe for concurrent use.
type Raw struct {
	data    []byte
	used    int
	cutAt   int // content end in front of the cut marker, -1 when unset
	dropped int
	status  Status
}

// New returns a buffer of capacity n. It panics if n < MinCapacity.
func New(n int) *Raw {
	if n < MinCapacity {
		panic("buffer: capacity below minimum")
	}
	return &Raw{data: make([]byte, n), cutAt: -1}
}

// Cap returns the total capacity including the terminator byte.
func (b *Raw) Cap() int { return len(b.data) }

// Len returns the number of bytes held.
func (b *Raw) Len() int { return b.used }

// visible is the number of bytes that can hold content.
func (b *Raw) visible() int { return len(b.data) - 1 }

// Room returns how many more bytes fit. It is zero once truncated.
func (b *Raw) Room() int {
	if b.status.Has(Truncated) {
		return 0
	}
	return b.visible() - b.used
}

// Truncated reports whether a write was cut short.
func (b *Raw) Truncated() bool { return b.status.Has(Truncated) }

// HasNUL reports whether a fragment carried an embedded NUL.
func (b *Raw) HasNUL() bool { return b.status.Has(HasNUL) }

// Status returns the current state bits.
func (b *Raw) Status() Status {
	s := b.status
	if b.used == 0 {
		s |= Empty
	}
	return s
}

// Err returns an overflow error when bytes were dropped, nil otherwise.
func (b *Raw) Err() error {
	if !b.Truncated() {
		return nil
	}
	return errors.NewOverflowError(len(b.data), b.dropped)
}

// Reset empties the buffer and clears all flags.
func (b *Raw) Reset() {
	b.used = 0
	b.cutAt = -1
	b.dropped = 0
	b.status = 0
	b.data[0] = 0
}

// Set replaces the content with s.
func (b *Raw) Set(s string) {
	b.Reset()
	b.AppendString(s)
}

// Append writes as much of p as fits. A NUL inside p zero-fills the rest of
// the attempted write and sets HasNUL. Overflow sets Truncated, places the
// cut marker and makes every later append a no-op.
func (b *Raw) Append(p []byte) {
	if len(p) == 0 || b.Truncated() {
		return
	}
	take := min(len(p), b.visible()-b.used)
	dst := b.data[b.used : b.used+take]
	if i := bytes.IndexByte(p[:take], 0); i >= 0 {
		b.status |= HasNUL
		copy(dst, p[:i])
		clear(dst[i:])
	} else {
		copy(dst, p[:take])
		if take < len(p) && bytes.IndexByte(p[take:], 0) >= 0 {
			b.status |= HasNUL
		}
	}
	b.used += take
	if take < len(p) {
		b.dropped += len(p) - take
		b.status |= Truncated
		b.placeCut(false)
	}
	b.data[b.used] = 0
}

// AppendString is Append for strings.
func (b *Raw) AppendString(s string) {
	if len(s) == 0 || b.Truncated() {
		return
	}
	room := b.visible() - b.used
	if len(s) <= room && !containsNUL(s) {
		b.used += copy(b.data[b.used:], s)
		b.data[b.used] = 0
		return
	}
	b.Append([]byte(s))
}

func containsNUL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return true
		}
	}
	return false
}

// AppendByte appends one byte.
func (b *Raw) AppendByte(c byte) {
	if b.Truncated() {
		return
	}
	if b.used == b.visible() {
		b.dropped++
		b.status |= Truncated
		b.placeCut(false)
		return
	}
	if c == 0 {
		b.status |= HasNUL
	}
	b.data[b.used] = c
	b.used++
	b.data[b.used] = 0
}

// AppendRepeat appends c n times.
func (b *Raw) AppendRepeat(c byte, n int) {
	for ; n > 0 && !b.Truncated(); n-- {
		b.AppendByte(c)
	}
}

// Write implements io.Writer. It never fails; bytes that do not fit are
// dropped and reported through Truncated.
func (b *Raw) Write(p []byte) (int, error) {
	b.Append(p)
	return len(p), nil
}

// WriteString implements io.StringWriter with the same policy as Write.
func (b *Raw) WriteString(s string) (int, error) {
	b.AppendString(s)
	return len(s), nil
}

// AvailableBuffer returns an empty slice whose capacity is the remaining
// room, for use with strconv.Append* followed by Append. Appending within
// that capacity writes directly into the buffer.
func (b *Raw) AvailableBuffer() []byte {
	if b.Truncated() {
		return nil
	}
	return b.data[b.used:b.used:b.visible()]
}

// Finalize prepares the buffer for output. A truncated buffer gets its cut
// marker ("...", or "...\n" with newline) over the last visible bytes. An
// intact buffer gets a trailing newline when requested; if even that does
// not fit the buffer is treated as truncated.
func (b *Raw) Finalize(newline bool) {
	if b.Truncated() {
		b.placeCut(newline)
		return
	}
	if !newline {
		return
	}
	if b.used < b.visible() {
		b.data[b.used] = '\n'
		b.used++
		b.data[b.used] = 0
		return
	}
	b.dropped++
	b.status |= Truncated
	b.placeCut(true)
}

// placeCut writes the cut marker at the end of the visible area, moving it
// left so that it neither splits a UTF-8 sequence nor follows spaces.
func (b *Raw) placeCut(newline bool) {
	marker := cutMarker
	if newline {
		marker = cutMarkerNL
	}
	content := b.used
	if b.cutAt >= 0 {
		content = b.cutAt
	}
	start := min(content, b.visible()-len(marker))
	for n := 0; n < utf8.UTFMax-1 && start > 0; n++ {
		r, size := utf8.DecodeLastRune(b.data[:start])
		if r != utf8.RuneError || size > 1 || b.data[start-1] < utf8.RuneSelf {
			break
		}
		start--
	}
	for start > 0 && b.data[start-1] == ' ' {
		start--
	}
	b.cutAt = start
	b.used = start + copy(b.data[start:], marker)
	b.data[b.used] = 0
}

// Bytes returns the held bytes. The slice aliases the buffer and is only
// valid until the next mutation.
func (b *Raw) Bytes() []byte { return b.data[:b.used] }

// View returns the held bytes as a string copy.
func (b *Raw) View() string { return string(b.data[:b.used]) }

// String implements fmt.Stringer.
func (b *Raw) String() string { return b.View() }

// WriteTo writes the held bytes to w.
func (b *Raw) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data[:b.used])
	return int64(n), err
}

// HasPrefix reports whether the content starts with s.
func (b *Raw) HasPrefix(s string) bool {
	return len(s) <= b.used && string(b.data[:len(s)]) == s
}
