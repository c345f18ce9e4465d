package logging

import (
	"context"
	"time"

	"github.com/Iron-Ham/termout/internal/buffer"
	"github.com/Iron-Ham/termout/internal/cell"
	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/config"
)

// Logger writes labelled lines: a coloured level sticker followed by the
// message values, one line per call, delivered whole through the sink's
// channel. It is safe for concurrent use.
type Logger struct {
	r      *cell.Renderer
	sink   *Sink
	arenas *buffer.ArenaPool
	text   cell.Format
	diag   *Diag
}

// Option configures a Logger.
type Option func(*Logger)

// WithDiag routes write failures to the diagnostics log.
func WithDiag(d *Diag) Option {
	return func(l *Logger) { l.diag = d }
}

// WithTextFormat replaces the format of the message values.
func WithTextFormat(f cell.Format) Option {
	return func(l *Logger) { l.text = f }
}

// WithLineSize sets the capacity of a composed line. Longer lines end in a
// cut marker.
func WithLineSize(n int) Option {
	return func(l *Logger) { l.arenas = buffer.NewArenaPool(n) }
}

// DefaultTextFormat is the message format: no width, no escape sequences,
// nothing after the values.
func DefaultTextFormat() cell.Format {
	f := cell.NewFormat()
	f.End = cell.EndNone
	f.Style.Plain = true
	return f
}

// New returns a logger rendering with r into sink.
func New(r *cell.Renderer, sink *Sink, opts ...Option) *Logger {
	l := &Logger{
		r:      r,
		sink:   sink,
		arenas: buffer.NewArenaPool(buffer.DefaultScratchSize),
		text:   DefaultTextFormat(),
		diag:   NopDiag(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sink returns the logger's sink.
func (l *Logger) Sink() *Sink { return l.sink }

// Renderer returns the logger's renderer.
func (l *Logger) Renderer() *cell.Renderer { return l.r }

// Log writes one line at lvl. The line is composed in a bounded buffer;
// a line that does not fit ends in a cut marker and records
// LoggingBufferFailed.
func (l *Logger) Log(ctx context.Context, lvl Level, values ...any) error {
	if !l.sink.Valid() {
		return ErrSinkUnavailable
	}
	arena := l.arenas.Get()
	defer l.arenas.Put(arena)
	line := arena.Scratch(buffer.PurposeLine)

	if err := l.compose(line, lvl, values); err != nil {
		return err
	}

	line.Finalize(true)
	if line.Truncated() {
		l.r.Context().Warn(config.LoggingBufferFailed)
	}
	res := l.sink.Write(ctx, line.Bytes())
	if !res.OK() {
		l.diag.Warn("logger write failed",
			"level", lvl.String(),
			"sink", l.sink.Channel().Name(),
			"outcome", res.Outcome.String(),
		)
		return res.Err
	}
	return nil
}

// compose renders the sticker and the values into line with the context
// output pointed at the sink.
func (l *Logger) compose(line *buffer.Raw, lvl Level, values []any) error {
	restore := l.sink.scope()
	defer restore()

	sticker := lvl.StickerFormat()
	emoji := sticker.Emoji && l.r.Context().CanUseEmoji()
	if err := l.r.Apply(line, sticker, nil, lvl.Sticker(emoji)); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	return l.r.Apply(line, l.text, nil, values...)
}

// Error logs at LevelError.
func (l *Logger) Error(values ...any) error {
	return l.Log(context.Background(), LevelError, values...)
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(values ...any) error {
	return l.Log(context.Background(), LevelDebug, values...)
}

// Info logs at LevelInfo.
func (l *Logger) Info(values ...any) error { return l.Log(context.Background(), LevelInfo, values...) }

// Test logs at LevelTest.
func (l *Logger) Test(values ...any) error { return l.Log(context.Background(), LevelTest, values...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(values ...any) error { return l.Log(context.Background(), LevelWarn, values...) }

// Time logs at LevelTime.
func (l *Logger) Time(values ...any) error { return l.Log(context.Background(), LevelTime, values...) }

// Ok logs at LevelOk.
func (l *Logger) Ok(values ...any) error { return l.Log(context.Background(), LevelOk, values...) }

// Track starts a timer and returns a func that logs the elapsed time at
// LevelTime:
//
//	defer log.Track("render")()
func (l *Logger) Track(label string) func() {
	start := time.Now()
	return func() {
		_ = l.Time(label+":", FormatDuration(time.Since(start)))
	}
}

// FlushWarnings writes each pending deferred warning as one LevelWarn line
// and clears them. Nothing is written when warnings are disabled, but the
// pending set is still cleared.
func (l *Logger) FlushWarnings(ctx context.Context) error {
	c := l.r.Context()
	if c.Warnings == nil {
		return nil
	}
	pending := c.Warnings.Take()
	if !c.WarnsAllowed {
		return nil
	}
	var first error
	for _, w := range pending.Split() {
		if err := l.Log(ctx, LevelWarn, w.Message()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes the sink and then flushes pending warnings to stderr, so a
// failed close is reported too.
func (l *Logger) Close() error {
	err := l.sink.Close()
	if stderr, serr := OpenSink(l.r.Context(), l.sink.reg, channel.Stderr, ""); serr == nil {
		_ = New(l.r, stderr, WithDiag(l.diag)).FlushWarnings(context.Background())
	}
	return err
}
