package channel

import (
	"context"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/termout/internal/buffer"
	"github.com/Iron-Ham/termout/internal/errors"
)

// ExitCode is a process exit status.
type ExitCode int

const (
	ExitSuccess        ExitCode = 0
	ExitUnknownError   ExitCode = 1
	ExitOutputFailure  ExitCode = 2
	ExitCfgFileFailure ExitCode = 3
	ExitCmdlineFailure ExitCode = 4
	ExitLoggingFailure ExitCode = 5
)

func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "success"
	case ExitUnknownError:
		return "unknown error"
	case ExitOutputFailure:
		return "output failure"
	case ExitCfgFileFailure:
		return "config file failure"
	case ExitCmdlineFailure:
		return "command line failure"
	case ExitLoggingFailure:
		return "logging failure"
	default:
		return "exit " + strconv.Itoa(int(c))
	}
}

// ExitPolicy decides whether HandleError terminates the process.
type ExitPolicy uint8

const (
	// ExitNone never exits.
	ExitNone ExitPolicy = 0
	// ExitOnFatal exits with ExitUnknownError for fatal logic errors.
	ExitOnFatal ExitPolicy = 1 << 0
	// ExitOnIoFailure exits with ExitOutputFailure when the report could
	// not be delivered through the channel.
	ExitOnIoFailure ExitPolicy = 1 << 1
	// ExitOnEither combines both.
	ExitOnEither = ExitOnFatal | ExitOnIoFailure
)

// Report is a caller-supplied error: a status line, optional detail and a
// fatal flag.
type Report = errors.LogicError

// NewReport builds a Report.
func NewReport(status, detail string, fatal bool) *Report {
	return errors.NewLogicError(status, detail, fatal)
}

const (
	fallbackMarker = "┌─ "
	reportSize     = 512
)

var (
	reportArenas = buffer.NewArenaPool(reportSize)
	exitFn       atomic.Pointer[func(int)]
)

func init() {
	fn := os.Exit
	exitFn.Store(&fn)
}

// SetExitFunc replaces the function HandleError calls to terminate the
// process and returns a func restoring the previous one.
func SetExitFunc(fn func(code int)) (restore func()) {
	prev := exitFn.Swap(&fn)
	return func() { exitFn.Store(prev) }
}

func exit(code ExitCode) {
	(*exitFn.Load())(int(code))
}

// ReportError renders err as one line and writes it through ch. When the
// channel does not deliver, the line is prefixed with a short diagnostic
// of the failure and written through the channel's raw fallback. A nil err
// writes nothing.
func ReportError(ctx context.Context, ch *Channel, err error) Result {
	if err == nil {
		return Result{}
	}
	arena := reportArenas.Get()
	defer reportArenas.Put(arena)

	buf := arena.Scratch(buffer.PurposeReport)
	renderError(buf, err)
	buf.Finalize(true)

	res := ch.Write(ctx, buf.Bytes())
	if res.OK() {
		return res
	}
	appendFailurePrefix(buf, res, ch.LockTimeout())
	_, _ = buf.WriteTo(ch.Fallback())
	return res
}

// HandleError reports err and then applies policy. An undeliverable report
// is checked before a fatal error, so a broken sink exits with
// ExitOutputFailure even when err is fatal.
func HandleError(ctx context.Context, ch *Channel, err error, policy ExitPolicy) Result {
	res := ReportError(ctx, ch, err)
	if err == nil {
		return res
	}
	if policy&ExitOnIoFailure != 0 && !res.OK() {
		exit(ExitOutputFailure)
		return res
	}
	if policy&ExitOnFatal != 0 && errors.IsFatal(err) {
		exit(ExitUnknownError)
	}
	return res
}

// renderError writes "status 'detail'" for reports, wrapped or not, and the
// error text for anything else.
func renderError(buf *buffer.Raw, err error) {
	var r *Report
	if errors.As(err, &r) {
		buf.AppendString(r.Status)
		if r.Detail != "" {
			buf.AppendString(" '")
			buf.AppendString(r.Detail)
			buf.AppendByte('\'')
		}
		if cause := errors.Unwrap(r); cause != nil {
			buf.AppendString(": ")
			buf.AppendString(cause.Error())
		}
		return
	}
	buf.AppendString(err.Error())
}

func appendFailurePrefix(buf *buffer.Raw, res Result, timeout time.Duration) {
	switch res.Outcome {
	case Contended:
		wait := int64(res.Attempts) * timeout.Microseconds()
		buf.AddPrefix(fallbackMarker,
			"[io:contended attempts=", strconv.Itoa(res.Attempts),
			" wait=", strconv.FormatInt(wait, 10), "us raw] ")
	case Failed:
		buf.AddPrefix(fallbackMarker,
			"[io:failed errno=", strconv.Itoa(res.Errno), " raw] ")
	}
}
