package buffer

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/termout/internal/errors"
)

func TestNew_PanicsBelowMinimum(t *testing.T) {
	assert.Panics(t, func() { New(4) })
	assert.NotPanics(t, func() { New(MinCapacity) })
}

func TestAppend_Overflow(t *testing.T) {
	b := New(10)
	b.AppendString("Hello World")

	assert.Equal(t, "Hello...", b.View())
	assert.True(t, b.Truncated())
	assert.True(t, b.Status().Has(Truncated))
	assert.False(t, b.Status().Has(Empty))

	var oe *errors.OverflowError
	require.ErrorAs(t, b.Err(), &oe)
	assert.Equal(t, 2, oe.Dropped)

	b.AppendString("more")
	assert.Equal(t, "Hello...", b.View(), "appends after truncation are ignored")
}

func TestSet(t *testing.T) {
	b := New(16)
	b.Set("ok")
	assert.Equal(t, "ok", b.View())
	assert.False(t, b.Truncated())
	assert.NoError(t, b.Err())

	b.Set("replaced")
	assert.Equal(t, "replaced", b.View())
}

func TestAppend_ExactFit(t *testing.T) {
	b := New(6)
	b.AppendString("abcde")
	assert.Equal(t, "abcde", b.View())
	assert.False(t, b.Truncated())
	assert.Equal(t, 0, b.Room())
}

func TestAppend_NUL(t *testing.T) {
	b := New(16)
	b.Append([]byte("ab\x00cd"))
	assert.True(t, b.HasNUL())
	assert.Equal(t, []byte("ab\x00\x00\x00"), b.Bytes())
	assert.Equal(t, "ok", Status(0).String())
	assert.Equal(t, "nul", b.Status().String())
}

func TestAppend_DoesNotSplitRunes(t *testing.T) {
	b := New(10)
	b.AppendString("ПППППП") // 12 bytes
	assert.True(t, b.Truncated())
	assert.Equal(t, "ППП...", b.View())
}

func TestAppendByteAndRepeat(t *testing.T) {
	b := New(8)
	b.AppendByte('x')
	b.AppendRepeat('-', 3)
	assert.Equal(t, "x---", b.View())

	b.AppendRepeat('=', 10)
	assert.True(t, b.Truncated())
	assert.Equal(t, "x---...", b.View())
}

func TestAvailableBuffer(t *testing.T) {
	b := New(32)
	b.AppendString("n=")
	b.Append(strconv.AppendInt(b.AvailableBuffer(), -42, 10))
	assert.Equal(t, "n=-42", b.View())
}

func TestWriteTo(t *testing.T) {
	b := New(16)
	_, _ = b.WriteString("line")
	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "line", out.String())
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cap     int
		input   string
		newline bool
		want    string
	}{
		{"intact no newline", 16, "abc", false, "abc"},
		{"intact newline", 16, "abc", true, "abc\n"},
		{"truncated", 10, "Hello World", false, "Hello..."},
		{"truncated newline", 10, "Hello World", true, "Hello...\n"},
		{"full newline", 6, "abcde", true, "a...\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.cap)
			b.AppendString(tt.input)
			b.Finalize(tt.newline)
			assert.Equal(t, tt.want, b.View())
			assert.LessOrEqual(t, b.Len(), b.Cap()-1)
		})
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	b := New(10)
	b.AppendString("Hello World")
	b.Finalize(true)
	b.Finalize(true)
	assert.Equal(t, "Hello...\n", b.View())
}

func TestReset(t *testing.T) {
	b := New(8)
	b.AppendString("overflowing")
	b.Reset()
	assert.Equal(t, "", b.View())
	assert.True(t, b.Status().Has(Empty))
	assert.False(t, b.Truncated())
	b.AppendString("abc")
	assert.Equal(t, "abc", b.View())
}

func TestAddPrefix(t *testing.T) {
	b := New(64)
	b.Set("message")
	b.AddPrefix("┌─ ", "[io] ")
	assert.Equal(t, "┌─ [io] message", b.View())

	b.AddPrefix("┌─ ", "[io] ")
	assert.Equal(t, "┌─ [io] message", b.View(), "second prefix with same marker is skipped")
}

func TestAddPrefix_Overflow(t *testing.T) {
	b := New(12)
	b.Set("abcdefghij")
	b.AddPrefix(">> ")
	assert.True(t, b.Truncated())
	assert.Equal(t, ">> abcde...", b.View())
}

func TestAddPrefixLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single line", "one", "# one"},
		{"two lines", "one\ntwo", "# one\n# two"},
		{"trailing newline", "one\ntwo\n", "# one\n# two\n"},
		{"blank line", "a\n\nb", "# a\n\n# b"},
		{"leading blank lines", "\n\nx\n", "\n\n# x\n"},
		{"only newlines", "\n\n", "\n\n"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(64)
			b.Set(tt.input)
			b.AddPrefixLines("#", " ")
			assert.Equal(t, tt.want, b.View())
		})
	}
}

func TestAddPrefixLines_Overflow(t *testing.T) {
	b := New(16)
	b.Set("aaaa\nbbbb\ncc")
	b.AddPrefixLines("> ")
	assert.True(t, b.Truncated())
	assert.Equal(t, "> aaaa\n> bbb...", b.View())
}

func TestAddPrefixLines_OverflowSkipsBlankLines(t *testing.T) {
	b := New(12)
	b.Set("aa\n\nbb\n\ncc")
	b.AddPrefixLines("> ")
	assert.True(t, b.Truncated())
	assert.True(t, strings.HasPrefix(b.View(), "> aa\n\n> "), b.View())
}

func TestArena(t *testing.T) {
	a := NewArena(32)
	raw := a.Scratch(PurposeRaw)
	raw.Set("first")

	assert.Equal(t, "first", a.Peek(PurposeRaw).View(), "peek keeps the last content")
	assert.Equal(t, "", a.Scratch(PurposeTrim).View())
	assert.Equal(t, "", a.Scratch(PurposeRaw).View(), "scratch clears before use")
	assert.Same(t, raw, a.Peek(PurposeRaw))
	assert.Equal(t, 32, a.Size())
}

func TestArenaPool(t *testing.T) {
	p := NewArenaPool(64)
	a := p.Get()
	require.NotNil(t, a)
	assert.Equal(t, 64, a.Size())
	p.Put(a)
	p.Put(NewArena(16))
	p.Put(nil)
}
