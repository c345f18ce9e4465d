package logging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/config"
	"github.com/Iron-Ham/termout/internal/errors"
)

// ErrSinkUnavailable is returned by writes to a closed or broken sink.
var ErrSinkUnavailable = errors.New("logger sink unavailable")

// scopeMu serializes output overrides of the shared context so a render
// never sees another sink's selector.
var scopeMu sync.Mutex

// Sink is one logger destination: a channel from the registry plus the
// selector it overrides the context output with while rendering.
//
// A write failure breaks the sink; later writes return ErrSinkUnavailable.
type Sink struct {
	sel    channel.Selector
	path   string
	reg    *channel.Registry
	ctx    *config.Context
	ch     *channel.Channel
	broken atomic.Bool
}

// OpenSink returns a sink for sel. path is only used by File selectors.
func OpenSink(ctx *config.Context, reg *channel.Registry, sel channel.Selector, path string) (*Sink, error) {
	ch, err := reg.Get(sel, path)
	if err != nil {
		return nil, fmt.Errorf("open logger sink %s: %w", sel, err)
	}
	return &Sink{sel: sel, path: path, reg: reg, ctx: ctx, ch: ch}, nil
}

// Selector returns the sink selector.
func (s *Sink) Selector() channel.Selector { return s.sel }

// Channel returns the channel the sink writes through.
func (s *Sink) Channel() *channel.Channel { return s.ch }

// Path returns the resolved file path for File sinks.
func (s *Sink) Path() string {
	if p, ok := s.reg.FilePath(s.sel, s.path); ok {
		return p
	}
	return ""
}

// Valid reports whether the sink still accepts writes.
func (s *Sink) Valid() bool { return !s.broken.Load() }

// Buffered reports whether the sink captures lines in memory.
func (s *Sink) Buffered() bool { return s.sel.Kind() == channel.Buffer }

// View returns the captured lines of a Buffer sink.
func (s *Sink) View() string {
	if !s.Buffered() {
		return ""
	}
	return s.reg.Memory().String()
}

// ClearBuffer discards the captured lines of a Buffer sink.
func (s *Sink) ClearBuffer() {
	if s.Buffered() {
		s.reg.Memory().Drain()
	}
}

// scope points the context output at the sink until the returned func is
// called.
func (s *Sink) scope() (restore func()) {
	scopeMu.Lock()
	prev := s.ctx.SetOutput(s.sel)
	return func() {
		s.ctx.SetOutput(prev)
		scopeMu.Unlock()
	}
}

// Write delivers one payload. A failed write breaks the sink and records
// LoggerWriteFailed; a contended one records the warning only.
func (s *Sink) Write(ctx context.Context, payload []byte) channel.Result {
	if !s.Valid() {
		return channel.Result{Outcome: channel.Failed, Err: ErrSinkUnavailable}
	}
	res := s.ch.Write(ctx, payload)
	switch res.Outcome {
	case channel.Failed:
		s.broken.Store(true)
		s.ctx.Warn(config.LoggerWriteFailed)
	case channel.Contended:
		s.ctx.Warn(config.LoggerWriteFailed)
	}
	return res
}

// Close releases a File sink's file and stops the sink. A failed close
// records LoggerFileCloseFailed.
func (s *Sink) Close() error {
	if s.broken.Swap(true) {
		return nil
	}
	if s.sel.Kind() != channel.File {
		return nil
	}
	if err := s.reg.Release(s.sel, s.path); err != nil {
		s.ctx.Warn(config.LoggerFileCloseFailed)
		return err
	}
	return nil
}
