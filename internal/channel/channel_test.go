package channel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/termout/internal/errors"
	"github.com/Iron-Ham/termout/internal/pathres"
)

func TestSelector(t *testing.T) {
	s, err := NewSelector(File, Append, CreateDirs)
	require.NoError(t, err)
	assert.Equal(t, Selector(0x49), s)
	assert.Equal(t, "File|Append|CreateDirs", s.String())
	assert.Equal(t, File, s.Kind())
	assert.True(t, s.Has(Append))
	assert.False(t, s.Has(Indexing))
	assert.False(t, s.SupportsTTY())
	assert.Equal(t, pathres.Append|pathres.CreateDirs, s.PathFlags())

	assert.True(t, Stdout.SupportsTTY())
	assert.True(t, Stderr.SupportsTTY())
	assert.False(t, Buffer.SupportsTTY())

	_, err = NewSelector(Stdout, Append)
	assert.ErrorIs(t, err, errors.ErrInvalidSelector)
	_, err = NewSelector(File, Selector(0x10))
	assert.ErrorIs(t, err, errors.ErrInvalidSelector)
	_, err = NewSelector(Selector(0x80))
	assert.ErrorIs(t, err, errors.ErrInvalidSelector)

	assert.False(t, (Stderr | Append).Valid())
	assert.True(t, (File | TimeIndex).Valid())
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in   string
		want Selector
		ok   bool
	}{
		{"stdout", Stdout, true},
		{"STDERR", Stderr, true},
		{"buffer", Buffer, true},
		{"file", File, true},
		{"file|append|indexing", File | Append | Indexing, true},
		{" File | TimeIndex ", File | TimeIndex, true},
		{"stdout|append", 0, false},
		{"printer", 0, false},
		{"append", 0, false},
		{"file|bogus", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelector(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	var s Selector
	require.NoError(t, s.UnmarshalText([]byte("file|createdirs")))
	text, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "file|createdirs", string(text))
}

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() error {
	f.flushes++
	return nil
}

func TestWrite_Ok(t *testing.T) {
	var out flushRecorder
	ch := New(Stdout, &out, Options{})
	res := ch.WriteString(context.Background(), "hello\n")
	assert.True(t, res.OK())
	assert.Equal(t, 1, res.Attempts)
	assert.NoError(t, res.Err)
	assert.Equal(t, "hello\n", out.String())
	assert.Equal(t, 1, out.flushes)
}

type syncRecorder struct {
	bytes.Buffer
	syncs int
}

func (s *syncRecorder) Sync() error {
	s.syncs++
	return nil
}

func TestWrite_SyncsFiles(t *testing.T) {
	var file, tty syncRecorder
	require.True(t, New(File, &file, Options{}).WriteString(context.Background(), "a\n").OK())
	require.True(t, New(Stdout, &tty, Options{}).WriteString(context.Background(), "b\n").OK())
	assert.Equal(t, 1, file.syncs)
	assert.Equal(t, 0, tty.syncs, "standard streams are not synced")
}

func TestWrite_Contended(t *testing.T) {
	var out bytes.Buffer
	logger := &recordingLogger{}
	ch := New(Stderr, &out, Options{LockTimeout: 50 * time.Microsecond, Attempts: 3, Logger: logger})

	require.NoError(t, ch.lock.Acquire(context.Background(), 1))
	before := StatsFor(Stderr).Contended
	res := ch.WriteString(context.Background(), "blocked")
	ch.lock.Release(1)

	assert.Equal(t, Contended, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 150*time.Microsecond, res.Wait)
	assert.True(t, errors.IsRetryable(res.Err))
	assert.ErrorIs(t, res.Err, errors.ErrContended)
	assert.Empty(t, out.String())
	assert.Equal(t, before+1, StatsFor(Stderr).Contended)
	assert.Equal(t, []string{"channel contended"}, logger.msgs)
}

func TestWrite_CancelledContextStopsRetrying(t *testing.T) {
	ch := New(Stdout, io.Discard, Options{LockTimeout: time.Second, Attempts: 5})
	require.NoError(t, ch.lock.Acquire(context.Background(), 1))
	defer ch.lock.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	res := ch.WriteString(ctx, "x")
	assert.Equal(t, Contended, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWrite_Failed(t *testing.T) {
	ch := New(File, failingWriter{err: &os.PathError{Op: "write", Path: "x", Err: syscall.EPIPE}}, Options{})
	before := StatsFor(File).Failed
	res := ch.WriteString(context.Background(), "x")
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, 1, res.Attempts, "sink errors are not retried")
	assert.Equal(t, int(syscall.EPIPE), res.Errno)
	assert.True(t, errors.IsIOFailure(res.Err))
	assert.ErrorIs(t, res.Err, syscall.EPIPE)
	assert.Equal(t, before+1, StatsFor(File).Failed)

	assert.True(t, ch.lock.TryAcquire(1), "lock is released after a failure")
}

// N concurrent writers each write M lines; every line must arrive intact.
func TestWrite_ConcurrentLinesDoNotInterleave(t *testing.T) {
	const writers, lines = 16, 50
	var out bytes.Buffer
	ch := New(Stdout, &out, Options{LockTimeout: time.Second})

	var wg conc.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Go(func() {
			for l := 0; l < lines; l++ {
				payload := fmt.Sprintf("writer=%02d line=%03d %s\n", w, l, strings.Repeat("x", 64))
				res := ch.WriteString(context.Background(), payload)
				assert.True(t, res.OK())
			}
		})
	}
	wg.Wait()

	got := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, got, writers*lines)
	seen := make(map[string]bool, len(got))
	for _, line := range got {
		var w, l int
		var tail string
		n, err := fmt.Sscanf(line, "writer=%d line=%d %s", &w, &l, &tail)
		require.NoError(t, err, line)
		require.Equal(t, 3, n)
		require.Equal(t, strings.Repeat("x", 64), tail, line)
		seen[line] = true
	}
	assert.Len(t, seen, writers*lines)
}

func TestReportError(t *testing.T) {
	var out, fallback bytes.Buffer
	ch := New(Stdout, &out, Options{Fallback: &fallback})

	res := ReportError(context.Background(), ch, NewReport("scene load failed", "missing camera", true))
	assert.True(t, res.OK())
	assert.Equal(t, "scene load failed 'missing camera'\n", out.String())
	assert.Empty(t, fallback.String())

	out.Reset()
	wrapped := fmt.Errorf("loading: %w", NewReport("scene load failed", "missing camera", false))
	ReportError(context.Background(), ch, wrapped)
	assert.Equal(t, "scene load failed 'missing camera'\n", out.String())

	out.Reset()
	ReportError(context.Background(), ch, fmt.Errorf("plain error"))
	assert.Equal(t, "plain error\n", out.String())

	out.Reset()
	res = ReportError(context.Background(), ch, nil)
	assert.True(t, res.OK())
	assert.Empty(t, out.String())
}

func TestReportError_ContendedFallback(t *testing.T) {
	var out, fallback bytes.Buffer
	ch := New(Stdout, &out, Options{LockTimeout: 100 * time.Microsecond, Attempts: 3, Fallback: &fallback})
	require.NoError(t, ch.lock.Acquire(context.Background(), 1))
	defer ch.lock.Release(1)

	res := ReportError(context.Background(), ch, NewReport("bad", "", false))
	assert.Equal(t, Contended, res.Outcome)
	assert.Empty(t, out.String())
	assert.Equal(t, "┌─ [io:contended attempts=3 wait=300us raw] bad\n", fallback.String())
}

func TestReportError_FailedFallback(t *testing.T) {
	var fallback bytes.Buffer
	ch := New(Stderr, failingWriter{err: syscall.EBADF}, Options{Fallback: &fallback})

	res := ReportError(context.Background(), ch, NewReport("bad", "detail", false))
	assert.Equal(t, Failed, res.Outcome)
	want := fmt.Sprintf("┌─ [io:failed errno=%d raw] bad 'detail'\n", int(syscall.EBADF))
	assert.Equal(t, want, fallback.String())
}

func TestHandleError_Policies(t *testing.T) {
	tests := []struct {
		name    string
		w       io.Writer
		err     error
		policy  ExitPolicy
		wantExt []int
	}{
		{"none", io.Discard, NewReport("x", "", true), ExitNone, nil},
		{"fatal", io.Discard, NewReport("x", "", true), ExitOnFatal, []int{1}},
		{"not fatal", io.Discard, NewReport("x", "", false), ExitOnFatal, nil},
		{"io failure", failingWriter{err: syscall.EIO}, NewReport("x", "", false), ExitOnIoFailure, []int{2}},
		{"io ok", io.Discard, NewReport("x", "", true), ExitOnIoFailure, nil},
		{"either prefers io", failingWriter{err: syscall.EIO}, NewReport("x", "", true), ExitOnEither, []int{2}},
		{"nil error", io.Discard, nil, ExitOnEither, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var codes []int
			restore := SetExitFunc(func(code int) { codes = append(codes, code) })
			defer restore()

			ch := New(Stdout, tt.w, Options{Fallback: io.Discard})
			HandleError(context.Background(), ch, tt.err, tt.policy)
			assert.Equal(t, tt.wantExt, codes)
		})
	}
}

func TestExitCodeString(t *testing.T) {
	assert.Equal(t, "output failure", ExitOutputFailure.String())
	assert.Equal(t, "exit 9", ExitCode(9).String())
}

func TestRawWriter(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	raw := RawFile(w)
	n, err := raw.WriteString("raw line\n")
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	require.NoError(t, w.Close())

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "raw line\n", string(data))
	assert.Same(t, w, raw.File())
}

func TestRegistry(t *testing.T) {
	var stdout, stderr bytes.Buffer
	fs := afero.NewMemMapFs()
	reg := NewRegistry(
		WithStdout(&stdout),
		WithStderr(&stderr),
		WithResolver(pathres.New(fs)),
		WithChannelOptions(Options{Fallback: io.Discard}),
	)
	defer reg.Close()

	a := reg.MustGet(Stdout)
	b := reg.MustGet(Stdout)
	assert.Same(t, a, b, "one channel per sink")
	a.WriteString(context.Background(), "out\n")
	reg.MustGet(Stderr).WriteString(context.Background(), "err\n")
	reg.MustGet(Buffer).WriteString(context.Background(), "mem1\nmem2\n")

	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
	assert.Equal(t, []string{"mem1", "mem2"}, reg.Memory().Lines())
	assert.Equal(t, "mem1\nmem2\n", reg.Memory().Drain())
	assert.Equal(t, 0, reg.Memory().Len())

	sel := File | CreateDirs
	fc, err := reg.Get(sel, "/logs/out.log")
	require.NoError(t, err)
	again, err := reg.Get(sel, "/logs/out.log")
	require.NoError(t, err)
	assert.Same(t, fc, again)
	assert.True(t, fc.WriteString(context.Background(), "to file\n").OK())

	path, ok := reg.FilePath(sel, "/logs/out.log")
	require.True(t, ok)
	require.NoError(t, reg.Close())
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "to file\n", string(data))

	_, err = reg.Get(File, "/missing/out.log")
	assert.ErrorIs(t, err, errors.ErrPathUnavailable)
	_, err = reg.Get(Stdout|Append, "")
	assert.ErrorIs(t, err, errors.ErrInvalidSelector)
}

func TestRegistryRelease(t *testing.T) {
	fs := afero.NewMemMapFs()
	reg := NewRegistry(WithResolver(pathres.New(fs)))
	defer reg.Close()

	sel := File | CreateDirs
	first, err := reg.Get(sel, "/logs/a.log")
	require.NoError(t, err)
	require.NoError(t, reg.Release(sel, "/logs/a.log"))
	_, ok := reg.FilePath(sel, "/logs/a.log")
	assert.False(t, ok)

	second, err := reg.Get(sel, "/logs/a.log")
	require.NoError(t, err)
	assert.NotSame(t, first, second, "a released file is reopened")
	assert.NoError(t, reg.Release(Stdout, ""))
}

func TestRegistryReleaseShared(t *testing.T) {
	fs := afero.NewMemMapFs()
	reg := NewRegistry(WithResolver(pathres.New(fs)))
	defer reg.Close()

	sel := File | CreateDirs
	a, err := reg.Get(sel, "/logs/shared.log")
	require.NoError(t, err)
	b, err := reg.Get(sel, "/logs/shared.log")
	require.NoError(t, err)
	require.Same(t, a, b)
	path, ok := reg.FilePath(sel, "/logs/shared.log")
	require.True(t, ok)

	require.NoError(t, reg.Release(sel, "/logs/shared.log"))
	_, ok = reg.FilePath(sel, "/logs/shared.log")
	assert.True(t, ok, "still held by the second user")
	assert.True(t, b.WriteString(context.Background(), "still open\n").OK())

	require.NoError(t, reg.Release(sel, "/logs/shared.log"))
	_, ok = reg.FilePath(sel, "/logs/shared.log")
	assert.False(t, ok)
	assert.False(t, b.WriteString(context.Background(), "closed\n").OK())

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "still open\n", string(data))
}

func TestStats(t *testing.T) {
	ResetStats()
	ch := New(Buffer, io.Discard, Options{})
	ch.WriteString(context.Background(), "a")
	ch.WriteString(context.Background(), "b")

	stats := Stats()
	require.Len(t, stats, 4)
	assert.Equal(t, Buffer, stats[3].Kind)
	assert.Equal(t, uint64(2), stats[3].Written)
	assert.Equal(t, uint64(0), stats[0].Written)
}
