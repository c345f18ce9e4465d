package channel

import (
	"io"
	"os"
)

// RawWriter writes straight to an OS file descriptor with no locking and
// no buffering. It is the last-resort path for reporting channel failures
// and must not be used for regular output.
type RawWriter struct {
	fd   int
	file *os.File
}

// RawStdout returns the raw writer for standard output.
func RawStdout() RawWriter { return RawWriter{fd: 1, file: os.Stdout} }

// RawStderr returns the raw writer for standard error.
func RawStderr() RawWriter { return RawWriter{fd: 2, file: os.Stderr} }

// RawFile returns a raw writer for f.
func RawFile(f *os.File) RawWriter { return RawWriter{fd: int(f.Fd()), file: f} }

// File returns the underlying file handle.
func (r RawWriter) File() *os.File { return r.file }

// WriteString implements io.StringWriter.
func (r RawWriter) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

var _ io.Writer = RawWriter{}
