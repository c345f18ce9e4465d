package cell

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/Iron-Ham/termout/internal/buffer"
)

// Appender is implemented by values that render themselves into a field.
// Implementations append to b and should honour m where it applies.
type Appender interface {
	AppendCell(b *buffer.Raw, m Manip)
}

// Char is a rune printed as a character. A plain rune is an int32 and
// prints as a number.
type Char rune

// AppendCell implements Appender.
func (c Char) AppendCell(b *buffer.Raw, _ Manip) {
	b.Append(utf8.AppendRune(b.AvailableBuffer(), rune(c)))
}

// AppendValues renders values back to back into b.
func AppendValues(b *buffer.Raw, m Manip, values ...any) {
	for _, v := range values {
		AppendValue(b, m, v)
	}
}

// AppendValue renders one value into b.
func AppendValue(b *buffer.Raw, m Manip, v any) {
	switch x := v.(type) {
	case nil:
	case string:
		b.AppendString(x)
	case []byte:
		b.Append(x)
	case Appender:
		x.AppendCell(b, m)
	case bool:
		appendBool(b, m, x)
	case int:
		appendInt(b, m, int64(x))
	case int8:
		appendInt(b, m, int64(x))
	case int16:
		appendInt(b, m, int64(x))
	case int32:
		appendInt(b, m, int64(x))
	case int64:
		appendInt(b, m, x)
	case uint:
		appendUint(b, m, uint64(x))
	case uint8:
		appendUint(b, m, uint64(x))
	case uint16:
		appendUint(b, m, uint64(x))
	case uint32:
		appendUint(b, m, uint64(x))
	case uint64:
		appendUint(b, m, x)
	case uintptr:
		appendUint(b, m, uint64(x))
	case float32:
		appendFloat(b, m, float64(x), 32)
	case float64:
		appendFloat(b, m, x, 64)
	case error:
		b.AppendString(x.Error())
	case fmt.Stringer:
		b.AppendString(x.String())
	default:
		_, _ = fmt.Fprint(b, x)
	}
}

// writeValues writes values straight to w. Text is written as is; other
// values are rendered through scratch first.
func writeValues(w io.Writer, scratch *buffer.Raw, m Manip, values ...any) error {
	for _, v := range values {
		var err error
		switch x := v.(type) {
		case nil:
		case string:
			_, err = io.WriteString(w, x)
		case []byte:
			_, err = w.Write(x)
		default:
			scratch.Reset()
			AppendValue(scratch, m, v)
			scratch.Finalize(false)
			_, err = scratch.WriteTo(w)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func appendBool(b *buffer.Raw, m Manip, v bool) {
	switch {
	case m.BoolAlpha:
		b.Append(strconv.AppendBool(b.AvailableBuffer(), v))
	case v:
		b.AppendByte('1')
	default:
		b.AppendByte('0')
	}
}

func appendInt(b *buffer.Raw, m Manip, v int64) {
	if v >= 0 {
		appendUint(b, m, uint64(v))
		return
	}
	b.AppendByte('-')
	unsigned := m
	unsigned.ShowPos = false
	appendUint(b, unsigned, uint64(-v))
}

func appendUint(b *buffer.Raw, m Manip, v uint64) {
	base := 10
	switch m.Base {
	case Hex:
		base = 16
	case Oct:
		base = 8
	}
	if m.ShowPos && base == 10 {
		b.AppendByte('+')
	}
	dst := strconv.AppendUint(b.AvailableBuffer(), v, base)
	if m.Uppercase && base == 16 {
		for i, c := range dst {
			if c >= 'a' && c <= 'f' {
				dst[i] = c - 'a' + 'A'
			}
		}
	}
	b.Append(dst)
}

func appendFloat(b *buffer.Raw, m Manip, v float64, bitSize int) {
	prec := m.Precision
	if prec < 0 {
		prec = 6
	}
	var verb byte
	switch {
	case m.Fixed && m.Scientific:
		verb, prec = 'x', -1
	case m.Fixed:
		verb = 'f'
	case m.Scientific:
		verb = 'e'
	default:
		verb = 'g'
		if prec == 0 {
			prec = 1
		}
	}
	if m.Uppercase {
		verb -= 'a' - 'A'
	}
	if m.ShowPos && !math.Signbit(v) {
		b.AppendByte('+')
	}
	b.Append(strconv.AppendFloat(b.AvailableBuffer(), v, verb, prec, bitSize))
}
