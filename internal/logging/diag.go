package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Diagnostics levels.
const (
	LevelDebugName = "DEBUG"
	LevelInfoName  = "INFO"
	LevelWarnName  = "WARN"
	LevelErrorName = "ERROR"
)

// Diag is the internal diagnostics logger: JSON lines describing what the
// engine itself did (lock contention, sink failures, rotations). It is
// separate from the product Logger and is safe for concurrent use.
type Diag struct {
	logger *slog.Logger
	closer io.Closer
	mu     sync.Mutex
	attrs  []slog.Attr
}

// DiagOptions configure NewDiag.
type DiagOptions struct {
	// Path is the diagnostics file. Empty discards everything.
	Path string
	// Level is one of ValidLevels, case-insensitive. Unknown values mean
	// INFO.
	Level    string
	Rotation RotationConfig
	// Fs is the filesystem for Path. Nil means the OS filesystem.
	Fs afero.Fs
}

// NewDiag opens the diagnostics file described by opts.
//
// Levels filter as usual:
//   - DEBUG: everything, including per-write channel events
//   - INFO: Info, Warn and Error
//   - WARN: Warn and Error
//   - ERROR: Error only
func NewDiag(opts DiagOptions) (*Diag, error) {
	if opts.Path == "" {
		return NopDiag(), nil
	}
	rw, err := NewRotatingWriter(opts.Fs, opts.Path, opts.Rotation)
	if err != nil {
		return nil, err
	}
	return newDiag(rw, slogLevel(opts.Level), rw), nil
}

// NewDiagWriter returns a Diag writing JSON lines to w. Close does not
// close w.
func NewDiagWriter(w io.Writer, level string) *Diag {
	return newDiag(w, slogLevel(level), nil)
}

func newDiag(w io.Writer, level slog.Level, closer io.Closer) *Diag {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Diag{logger: slog.New(handler), closer: closer}
}

func slogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebugName:
		return slog.LevelDebug
	case LevelWarnName:
		return slog.LevelWarn
	case LevelErrorName:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent tags every entry with the component that emitted it.
func (d *Diag) WithComponent(name string) *Diag {
	return d.With("component", name)
}

// With returns a child logger carrying extra key-value attributes. Keys
// that are not strings are skipped together with their value.
func (d *Diag) With(args ...any) *Diag {
	if len(args) == 0 {
		return d
	}
	attrs := make([]slog.Attr, 0, len(d.attrs)+len(args)/2)
	attrs = append(attrs, d.attrs...)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return &Diag{logger: d.logger, closer: d.closer, attrs: attrs}
}

// Debug logs at DEBUG. It satisfies channel.DebugLogger.
func (d *Diag) Debug(msg string, args ...any) { d.log(slog.LevelDebug, msg, args...) }

// Info logs at INFO.
func (d *Diag) Info(msg string, args ...any) { d.log(slog.LevelInfo, msg, args...) }

// Warn logs at WARN.
func (d *Diag) Warn(msg string, args ...any) { d.log(slog.LevelWarn, msg, args...) }

// Error logs at ERROR.
func (d *Diag) Error(msg string, args ...any) { d.log(slog.LevelError, msg, args...) }

func (d *Diag) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !d.logger.Enabled(ctx, level) {
		return
	}
	all := make([]any, 0, len(d.attrs)+len(args))
	for _, a := range d.attrs {
		all = append(all, a)
	}
	all = append(all, args...)
	d.logger.Log(ctx, level, msg, all...)
}

// Close closes the diagnostics file, if there is one. Child loggers share
// it, so only the root should be closed.
func (d *Diag) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

// NopDiag discards everything.
func NopDiag() *Diag {
	return newDiag(io.Discard, slog.LevelError+1, nil)
}

// ParseLevel normalizes level to one of ValidLevels, defaulting to INFO.
func ParseLevel(level string) string {
	switch up := strings.ToUpper(level); up {
	case LevelDebugName, LevelInfoName, LevelWarnName, LevelErrorName:
		return up
	default:
		return LevelInfoName
	}
}

// ValidLevels lists the diagnostics levels.
func ValidLevels() []string {
	return []string{LevelDebugName, LevelInfoName, LevelWarnName, LevelErrorName}
}
