// Package channel serializes writes to shared text sinks. Every sink has one
// Channel guarding it with a timed lock: a writer makes a bounded number of
// attempts to take the lock and gives up instead of blocking indefinitely.
// Payloads are written whole inside the critical section, so concurrent
// lines never interleave.
//
// When a channel cannot deliver (the lock stays contended or the sink
// fails), ReportError falls back to a lock-free raw write so the failure is
// still visible.
package channel

import (
	"context"
	"io"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Iron-Ham/termout/internal/errors"
)

const (
	// DefaultLockTimeout bounds a single lock attempt.
	DefaultLockTimeout = 100 * time.Microsecond
	// DefaultAttempts is the retry budget for one write.
	DefaultAttempts = 3
)

// Outcome is the result class of a channel write.
type Outcome uint8

const (
	Ok Outcome = iota
	Contended
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case Contended:
		return "contended"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes one write.
type Result struct {
	Outcome Outcome
	// Attempts is the number of lock attempts made.
	Attempts int
	// Wait is the lock budget spent: Attempts times the per-attempt timeout.
	Wait time.Duration
	// Errno is the OS error number of a failed write, when one is known.
	Errno int
	// Err is nil on Ok, a ContentionError on Contended and an
	// IOFailureError on Failed.
	Err error
}

// OK reports whether the payload was delivered.
func (r Result) OK() bool { return r.Outcome == Ok }

// DebugLogger receives contention and failure events. *slog.Logger and
// the logging package's diagnostics logger both satisfy it.
type DebugLogger interface {
	Debug(msg string, args ...any)
}

// Options configure a Channel.
type Options struct {
	// LockTimeout bounds each lock attempt. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
	// Attempts is the retry budget. Zero means DefaultAttempts.
	Attempts int
	// Logger receives debug events. Nil disables them.
	Logger DebugLogger
	// Fallback is written to by the error reporter when the channel itself
	// cannot deliver. Nil means the raw stderr writer.
	Fallback io.Writer
}

func (o Options) withDefaults() Options {
	if o.LockTimeout <= 0 {
		o.LockTimeout = DefaultLockTimeout
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Fallback == nil {
		o.Fallback = RawStderr()
	}
	return o
}

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

// Channel guards one sink. It is safe for concurrent use.
type Channel struct {
	sel  Selector
	name string
	w    io.Writer
	lock *semaphore.Weighted
	opts Options
}

// New returns a channel writing to w. sel identifies the sink kind for
// statistics, TTY decisions and reports.
func New(sel Selector, w io.Writer, opts Options) *Channel {
	return &Channel{
		sel:  sel,
		name: sinkName(sel),
		w:    w,
		lock: semaphore.NewWeighted(1),
		opts: opts.withDefaults(),
	}
}

func sinkName(sel Selector) string {
	switch sel.Kind() {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	case File:
		return "file"
	default:
		return "buffer"
	}
}

// Selector returns the sink selector.
func (c *Channel) Selector() Selector { return c.sel }

// Name returns the sink name used in reports.
func (c *Channel) Name() string { return c.name }

// Writer returns the guarded sink. Writing to it directly bypasses the lock.
func (c *Channel) Writer() io.Writer { return c.w }

// Fallback returns the raw writer used when the channel cannot deliver.
func (c *Channel) Fallback() io.Writer { return c.opts.Fallback }

// LockTimeout returns the per-attempt lock timeout.
func (c *Channel) LockTimeout() time.Duration { return c.opts.LockTimeout }

// Write delivers payload as one unit. Each attempt waits at most the lock
// timeout; after the retry budget is spent the write is reported as
// Contended. A cancelled ctx ends the retry loop early with the same
// outcome. A sink error is Failed and is not retried.
func (c *Channel) Write(ctx context.Context, payload []byte) Result {
	return c.Do(ctx, func(w io.Writer) error {
		_, err := w.Write(payload)
		return err
	})
}

// WriteString is Write for strings.
func (c *Channel) WriteString(ctx context.Context, payload string) Result {
	return c.Do(ctx, func(w io.Writer) error {
		_, err := io.WriteString(w, payload)
		return err
	})
}

// Do runs fn with exclusive access to the sink and flushes the sink
// afterwards when it buffers. fn must not retain w.
func (c *Channel) Do(ctx context.Context, fn func(w io.Writer) error) Result {
	res := Result{}
	for res.Attempts < c.opts.Attempts {
		res.Attempts++
		if c.acquire(ctx) {
			if err := c.locked(fn); err != nil {
				return c.failed(res, err)
			}
			record(c.sel, Ok)
			return res
		}
		if ctx.Err() != nil {
			break
		}
	}
	return c.contended(res)
}

func (c *Channel) locked(fn func(w io.Writer) error) error {
	defer c.lock.Release(1)
	if err := fn(c.w); err != nil {
		return err
	}
	if f, ok := c.w.(flusher); ok {
		return f.Flush()
	}
	// terminals and pipes reject fsync, so only files are synced
	if f, ok := c.w.(syncer); ok && c.sel.Kind() == File {
		return f.Sync()
	}
	return nil
}

func (c *Channel) acquire(ctx context.Context) bool {
	if c.lock.TryAcquire(1) {
		return true
	}
	actx, cancel := context.WithTimeout(ctx, c.opts.LockTimeout)
	defer cancel()
	return c.lock.Acquire(actx, 1) == nil
}

func (c *Channel) contended(res Result) Result {
	res.Outcome = Contended
	res.Wait = time.Duration(res.Attempts) * c.opts.LockTimeout
	res.Err = errors.NewContentionError(c.name, res.Attempts, res.Wait)
	record(c.sel, Contended)
	if c.opts.Logger != nil {
		c.opts.Logger.Debug("channel contended",
			"sink", c.name,
			"attempts", res.Attempts,
			"wait", res.Wait,
		)
	}
	return res
}

func (c *Channel) failed(res Result, err error) Result {
	res.Outcome = Failed
	res.Errno = errnoOf(err)
	res.Err = errors.NewIOFailureError(c.name, err).WithErrno(res.Errno)
	record(c.sel, Failed)
	if c.opts.Logger != nil {
		c.opts.Logger.Debug("channel write failed",
			"sink", c.name,
			"errno", res.Errno,
			"error", err.Error(),
		)
	}
	return res
}

func errnoOf(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}
