// Package pathres prepares log file paths: parent directory creation,
// timestamp suffixes and collision indexing, then opens the result for
// appending or truncation.
package pathres

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/termout/internal/errors"
)

// Flags select how a path is prepared. The bit values match the low bits
// of a channel selector.
type Flags uint8

const (
	// Append opens the file for appending instead of truncating it.
	Append Flags = 1 << iota
	// Indexing picks the first free "name(n).ext" when the path exists.
	Indexing
	// TimeIndex inserts a timestamp before the extension.
	TimeIndex
	// CreateDirs creates missing parent directories.
	CreateDirs
)

// Has reports whether every bit of flag is set.
func (f Flags) Has(flag Flags) bool { return f&flag == flag }

const (
	// MaxIndex is the highest collision index tried.
	MaxIndex = 1000
	// TimestampLayout is the suffix format for TimeIndex.
	TimestampLayout = "_2006-01-02_15.04.05"
)

// Resolver prepares paths on a filesystem.
type Resolver struct {
	fs  afero.Fs
	now func() time.Time
}

// New returns a resolver backed by fs. A nil fs means the OS filesystem.
func New(fs afero.Fs) *Resolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Resolver{fs: fs, now: time.Now}
}

// WithClock replaces the time source used for timestamp suffixes.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Fs returns the underlying filesystem.
func (r *Resolver) Fs() afero.Fs { return r.fs }

// Resolve returns the path a log file should be written to. Without
// Indexing the candidate is returned even when it exists; the caller's
// Append flag decides whether it is appended to or truncated.
func (r *Resolver) Resolve(path string, flags Flags) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", errors.ErrPathUnavailable)
	}
	path = filepath.Clean(path)

	dir := filepath.Dir(path)
	if dir != "." {
		exists, err := afero.DirExists(r.fs, dir)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", errors.ErrPathUnavailable, dir, err)
		}
		if !exists {
			if !flags.Has(CreateDirs) {
				return "", fmt.Errorf("%w: parent directory does not exist: %s", errors.ErrPathUnavailable, dir)
			}
			if err := r.fs.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("%w: create %s: %w", errors.ErrPathUnavailable, dir, err)
			}
		}
	}

	stem, ext := splitExt(path)
	if flags.Has(TimeIndex) {
		stem += r.now().Format(TimestampLayout)
	}
	if !flags.Has(Indexing) {
		return stem + ext, nil
	}
	return r.firstFree(stem, ext)
}

func (r *Resolver) firstFree(stem, ext string) (string, error) {
	candidate := stem + ext
	for n := 0; n <= MaxIndex; n++ {
		if n > 0 {
			candidate = stem + "(" + strconv.Itoa(n) + ")" + ext
		}
		exists, err := afero.Exists(r.fs, candidate)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", errors.ErrPathUnavailable, candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free index up to %d for %s%s", errors.ErrPathUnavailable, MaxIndex, stem, ext)
}

// Open resolves path and opens it for writing. It returns the file and the
// resolved path.
func (r *Resolver) Open(path string, flags Flags) (afero.File, string, error) {
	resolved, err := r.Resolve(path, flags)
	if err != nil {
		return nil, "", err
	}
	mode := os.O_CREATE | os.O_WRONLY
	if flags.Has(Append) {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}
	f, err := r.fs.OpenFile(resolved, mode, 0o644)
	if err != nil {
		if info, statErr := r.fs.Stat(resolved); statErr == nil && !info.Mode().IsRegular() {
			return nil, "", fmt.Errorf("%w: not a regular file: %s", errors.ErrPathUnavailable, resolved)
		}
		return nil, "", fmt.Errorf("%w: open %s: %w", errors.ErrPathUnavailable, resolved, err)
	}
	return f, resolved, nil
}

// splitExt splits "dir/name.ext" into "dir/name" and ".ext". A leading dot
// is part of the name, so ".env" has no extension.
func splitExt(path string) (stem, ext string) {
	base := filepath.Base(path)
	ext = filepath.Ext(base)
	if ext == base {
		ext = ""
	}
	return path[:len(path)-len(ext)], ext
}
