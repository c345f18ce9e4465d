package logging

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
)

// RotationConfig controls size-based rotation of the diagnostics file.
type RotationConfig struct {
	// MaxSizeMB is the size in megabytes that triggers a rotation. Zero
	// disables rotation.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept next to the live one.
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// DefaultRotationConfig returns 10 MB files with three backups.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

// RotatingWriter appends to a file and moves it aside as path.1, path.2 and
// so on once it grows past the configured size. It is safe for concurrent
// use.
type RotatingWriter struct {
	mu sync.Mutex

	fs         afero.Fs
	path       string
	maxSize    int64
	maxBackups int
	compress   bool

	file afero.File
	size int64

	// compressions tracks background gzip jobs so Close can wait for them.
	compressions conc.WaitGroup
}

// NewRotatingWriter opens path on fs for appending, creating parent
// directories as needed. A nil fs means the OS filesystem.
func NewRotatingWriter(fs afero.Fs, path string, cfg RotationConfig) (*RotatingWriter, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	rw := &RotatingWriter{
		fs:         fs,
		path:       path,
		maxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
		compress:   cfg.Compress,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// open requires rw.mu or exclusive ownership.
func (rw *RotatingWriter) open() error {
	if err := rw.fs.MkdirAll(filepath.Dir(rw.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := rw.fs.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rw.file = f
	rw.size = info.Size()
	return nil
}

// Write implements io.Writer. A payload that would push the file past the
// size limit rotates first; a failed rotation is reported on stderr and the
// payload still goes to the current file.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, fmt.Errorf("log file %s is closed", rw.path)
	}
	if rw.maxSize > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.maxSize {
		if err := rw.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "termout: log rotation failed: %v\n", err)
		}
		if rw.file == nil {
			return 0, fmt.Errorf("log file %s unavailable after rotation", rw.path)
		}
	}
	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	rw.file = nil

	rw.shiftBackups()

	first := rw.backupPath(1)
	if rw.maxBackups <= 0 {
		if err := rw.fs.Remove(rw.path); err != nil {
			return rw.reopen(fmt.Errorf("remove log file: %w", err))
		}
		return rw.open()
	}
	if err := rw.fs.Rename(rw.path, first); err != nil {
		return rw.reopen(fmt.Errorf("rename log file: %w", err))
	}
	if rw.compress {
		rw.compressions.Go(func() { rw.compressFile(first) })
	}
	return rw.open()
}

func (rw *RotatingWriter) reopen(cause error) error {
	if err := rw.open(); err != nil {
		return fmt.Errorf("%w; reopen: %v", cause, err)
	}
	return cause
}

// shiftBackups renames path.N to path.N+1, dropping the oldest.
func (rw *RotatingWriter) shiftBackups() {
	if rw.maxBackups <= 0 {
		return
	}
	oldest := rw.backupPath(rw.maxBackups)
	_ = rw.fs.Remove(oldest)
	_ = rw.fs.Remove(oldest + ".gz")

	for i := rw.maxBackups - 1; i >= 1; i-- {
		from, to := rw.backupPath(i), rw.backupPath(i+1)
		if ok, _ := afero.Exists(rw.fs, from+".gz"); ok {
			_ = rw.fs.Rename(from+".gz", to+".gz")
		} else if ok, _ := afero.Exists(rw.fs, from); ok {
			_ = rw.fs.Rename(from, to)
		}
	}
}

func (rw *RotatingWriter) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", rw.path, n)
}

// compressFile replaces path with path.gz. The uncompressed file is kept
// when anything fails.
func (rw *RotatingWriter) compressFile(path string) {
	data, err := afero.ReadFile(rw.fs, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termout: read %s for compression: %v\n", path, err)
		return
	}
	gzPath := path + ".gz"
	out, err := rw.fs.Create(gzPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termout: create %s: %v\n", gzPath, err)
		return
	}
	zw := gzip.NewWriter(out)
	_, werr := zw.Write(data)
	cerr := zw.Close()
	ferr := out.Close()
	if werr != nil || cerr != nil || ferr != nil {
		_ = rw.fs.Remove(gzPath)
		fmt.Fprintf(os.Stderr, "termout: compress %s failed\n", path)
		return
	}
	_ = rw.fs.Remove(path)
}

// Sync commits the live file to storage.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file == nil {
		return nil
	}
	return rw.file.Sync()
}

// Close waits for pending compressions and closes the live file.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.compressions.Wait()

	if rw.file == nil {
		return nil
	}
	if err := rw.file.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	rw.file = nil
	return nil
}

// Size returns the size of the live file in bytes.
func (rw *RotatingWriter) Size() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}

// Path returns the live file path.
func (rw *RotatingWriter) Path() string { return rw.path }
