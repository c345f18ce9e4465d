package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/termout/internal/cell"
	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/config"
	"github.com/Iron-Ham/termout/internal/sgr"
)

type frameWriter struct {
	bytes.Buffer
	frames  int
	flushes int
}

func (w *frameWriter) Write(p []byte) (int, error) {
	w.frames++
	return w.Buffer.Write(p)
}

func (w *frameWriter) Flush() error {
	w.flushes++
	return nil
}

func tickAll(t *testing.T, b *Bar, w *frameWriter) {
	t.Helper()
	for i := 0; i <= b.Cycles; i++ {
		require.NoError(t, b.Tick(w))
	}
}

func TestBresenham(t *testing.T) {
	tests := []struct {
		x, dx, dy int
		want      int
	}{
		{x: -1, dx: 10, dy: 10, want: 0},
		{x: 3, dx: 0, dy: 10, want: 0},
		{x: 3, dx: 10, dy: 0, want: 0},
		{x: 0, dx: 10, dy: 10, want: 0},
		{x: 4, dx: 10, dy: 10, want: 4},
		{x: 9, dx: 10, dy: 10, want: 9},
		{x: 3, dx: 10, dy: 5, want: 1},
		{x: 2, dx: 10, dy: 2, want: 0},
		{x: 3, dx: 10, dy: 2, want: 1},
		{x: 8, dx: 10, dy: 2, want: 2},
		{x: 1, dx: 10, dy: 20, want: 2},
		{x: 5, dx: 10, dy: 20, want: 10},
		{x: 50, dx: 10, dy: 10, want: 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bresenham(tt.x, tt.dx, tt.dy), "Bresenham(%d, %d, %d)", tt.x, tt.dx, tt.dy)
	}
}

func TestBarFrames(t *testing.T) {
	r := cell.NewRenderer(config.NewContext(), 0)
	b := New(r)
	b.Cycles = 4
	b.Length = 4
	b.Hide = false

	w := &frameWriter{}
	tickAll(t, b, w)

	bold := sgr.New(sgr.Default, sgr.Default, sgr.Bold)
	frame := func(marks int) string {
		return bold.Sequence() + "[" + strings.Repeat("#", marks) + strings.Repeat(" ", 4-marks) + "] " + sgr.ResetSequence
	}
	want := frame(0)
	for i := 1; i <= 4; i++ {
		want += sgr.ClearLeft(7) + frame(i)
	}
	assert.Equal(t, want, w.String())
	assert.Equal(t, 5, w.frames)
	assert.Equal(t, 5, w.flushes)
	assert.False(t, b.Running())
}

func TestBarRedrawsOnlyOnChange(t *testing.T) {
	r := cell.NewRenderer(config.NewContext(), 0)
	b := New(r)
	b.Length = 2

	w := &frameWriter{}
	tickAll(t, b, w)
	assert.Equal(t, 4, w.frames, "first frame, two slider moves and the final frame")
}

func TestBarHide(t *testing.T) {
	r := cell.NewRenderer(config.NewContext(), 0)
	b := New(r)
	b.Cycles = 1
	b.Length = 3

	w := &frameWriter{}
	tickAll(t, b, w)
	assert.True(t, strings.HasSuffix(w.String(), sgr.ResetSequence+sgr.ClearLeft(6)))
}

func TestBarRestartsAfterFinish(t *testing.T) {
	r := cell.NewRenderer(config.NewContext(), 0)
	b := New(r)
	b.Cycles = 2

	w := &frameWriter{}
	tickAll(t, b, w)
	first := w.String()
	w.Reset()
	tickAll(t, b, w)
	assert.Equal(t, first, w.String())
}

func TestAlternateFallback(t *testing.T) {
	ctx := config.NewContext()
	ctx.ANSIAllowed = false
	b := New(cell.NewRenderer(ctx, 0))
	b.Cycles = 4
	b.Length = 4

	w := &frameWriter{}
	tickAll(t, b, w)
	assert.Equal(t, "Progress .... ", w.String())
}

func TestAlternateStyled(t *testing.T) {
	b := New(cell.NewRenderer(config.NewContext(), 0))
	b.Variant = VariantAlternate
	b.Cycles = 2
	b.Length = 2
	b.Hide = false

	w := &frameWriter{}
	tickAll(t, b, w)

	seq := sgr.New(sgr.Default, sgr.Default, sgr.Bold).Sequence()
	want := seq + "Progress " + sgr.ResetSequence +
		seq + "." + sgr.ResetSequence +
		seq + ". " + sgr.ResetSequence
	assert.Equal(t, want, w.String())
}

func TestAlternateNormalizesGlyphs(t *testing.T) {
	ctx := config.Plain()
	ctx.TTYAllowed = true
	b := New(cell.NewRenderer(ctx, 0))
	b.Cycles = 1
	b.Length = 1
	b.Dots.Mark = "•"

	w := &frameWriter{}
	tickAll(t, b, w)
	assert.Equal(t, "Progress ??? ", w.String())
}

func TestPercentFrames(t *testing.T) {
	b := New(cell.NewRenderer(config.NewContext(), 0))
	b.Variant = VariantPercent
	b.Cycles = 4

	w := &frameWriter{}
	tickAll(t, b, w)

	bold := sgr.New(sgr.Default, sgr.Default, sgr.Bold)
	frame := func(s string) string { return bold.Sequence() + "Progress: " + s + "% " + sgr.ResetSequence }
	want := frame("  0") +
		sgr.ClearLeft(15) + frame(" 25") +
		sgr.ClearLeft(15) + frame(" 50") +
		sgr.ClearLeft(15) + frame(" 75") +
		sgr.ClearLeft(15) + frame("100") +
		sgr.ClearLeft(15)
	assert.Equal(t, want, w.String())
}

func TestSilentWithoutTTY(t *testing.T) {
	ctx := config.NewContext()
	ctx.SetOutput(channel.File)
	b := New(cell.NewRenderer(ctx, 0))

	w := &frameWriter{}
	tickAll(t, b, w)
	assert.Empty(t, w.String())
	assert.False(t, b.Running())
}

func TestDone(t *testing.T) {
	b := New(cell.NewRenderer(config.NewContext(), 0))
	b.Hide = false

	w := &frameWriter{}
	require.NoError(t, b.Done(w))
	assert.Equal(t, 2, w.frames)
	assert.Contains(t, w.String(), "[##########] ")
	assert.False(t, b.Running())
}

func TestReset(t *testing.T) {
	b := New(cell.NewRenderer(config.NewContext(), 0))
	w := &frameWriter{}
	require.NoError(t, b.Tick(w))
	require.NoError(t, b.Tick(w))
	assert.Equal(t, 1, b.Count())

	b.Reset()
	assert.False(t, b.Running())
	require.NoError(t, b.Tick(w))
	assert.Equal(t, 0, b.Count())
}

func TestDegenerate(t *testing.T) {
	b := New(cell.NewRenderer(config.NewContext(), 0))
	b.Cycles = 0
	w := &frameWriter{}
	require.NoError(t, b.Tick(w))
	require.NoError(t, b.Done(w))
	assert.Empty(t, w.String())
}

func TestParseVariant(t *testing.T) {
	for _, name := range []string{"bar", "alt", "alternate", "percent"} {
		_, ok := ParseVariant(name)
		assert.True(t, ok, name)
	}
	_, ok := ParseVariant("spinner")
	assert.False(t, ok)
	assert.Equal(t, "percent", VariantPercent.String())
}
