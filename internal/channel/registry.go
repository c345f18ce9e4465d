package channel

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Iron-Ham/termout/internal/errors"
	"github.com/Iron-Ham/termout/internal/pathres"
)

// Registry hands out one Channel per sink so every writer to a sink shares
// the same lock. Files are opened on first use and keyed by the requested
// path and flags.
type Registry struct {
	mu       sync.Mutex
	opts     Options
	resolver *pathres.Resolver
	stdout   io.Writer
	stderr   io.Writer
	memory   *MemorySink
	std      map[Selector]*Channel
	files    map[string]*fileChannel
}

type fileChannel struct {
	ch   *Channel
	file io.Closer
	path string
	refs int
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStdout replaces the standard output sink.
func WithStdout(w io.Writer) RegistryOption {
	return func(r *Registry) { r.stdout = w }
}

// WithStderr replaces the standard error sink.
func WithStderr(w io.Writer) RegistryOption {
	return func(r *Registry) { r.stderr = w }
}

// WithResolver sets the path resolver used for file sinks.
func WithResolver(res *pathres.Resolver) RegistryOption {
	return func(r *Registry) { r.resolver = res }
}

// WithChannelOptions sets the options every channel is created with.
func WithChannelOptions(o Options) RegistryOption {
	return func(r *Registry) { r.opts = o }
}

// NewRegistry returns a registry over the process streams unless options
// replace them.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		stdout: os.Stdout,
		stderr: os.Stderr,
		memory: &MemorySink{},
		std:    make(map[Selector]*Channel),
		files:  make(map[string]*fileChannel),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.resolver == nil {
		r.resolver = pathres.New(nil)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return NewRegistry() })

// Default returns the process-wide registry over os.Stdout and os.Stderr.
func Default() *Registry { return defaultRegistry() }

// Get returns the channel for sel. path is only used for File selectors;
// every File Get takes a reference that Release gives back.
func (r *Registry) Get(sel Selector, path string) (*Channel, error) {
	if !sel.Valid() {
		return nil, fmt.Errorf("%w: %s", errors.ErrInvalidSelector, sel)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if sel.Kind() == File {
		return r.file(sel, path)
	}
	if ch, ok := r.std[sel]; ok {
		return ch, nil
	}
	var w io.Writer
	switch sel {
	case Stdout:
		w = r.stdout
	case Stderr:
		w = r.stderr
	case Buffer:
		w = r.memory
	}
	ch := New(sel, w, r.opts)
	r.std[sel] = ch
	return ch, nil
}

// MustGet is Get for selectors that cannot fail (everything but File).
func (r *Registry) MustGet(sel Selector) *Channel {
	ch, err := r.Get(sel, "")
	if err != nil {
		panic(err)
	}
	return ch
}

func (r *Registry) file(sel Selector, path string) (*Channel, error) {
	key := sel.String() + "\x00" + path
	if fc, ok := r.files[key]; ok {
		fc.refs++
		return fc.ch, nil
	}
	f, resolved, err := r.resolver.Open(path, sel.PathFlags())
	if err != nil {
		return nil, err
	}
	fc := &fileChannel{ch: New(sel, f, r.opts), file: f, path: resolved, refs: 1}
	r.files[key] = fc
	return fc.ch, nil
}

// FilePath returns the resolved path of a file channel opened through Get.
func (r *Registry) FilePath(sel Selector, path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fc, ok := r.files[sel.String()+"\x00"+path]
	if !ok {
		return "", false
	}
	return fc.path, true
}

// Release drops one reference taken by Get on a file channel. The last
// release closes the file and forgets the channel. It is a no-op for
// selectors that are not open files.
func (r *Registry) Release(sel Selector, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sel.String() + "\x00" + path
	fc, ok := r.files[key]
	if !ok {
		return nil
	}
	if fc.refs--; fc.refs > 0 {
		return nil
	}
	delete(r.files, key)
	if err := fc.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", fc.path, err)
	}
	return nil
}

// Memory returns the in-memory sink behind Buffer channels.
func (r *Registry) Memory() *MemorySink { return r.memory }

// Close closes every file opened by the registry. Channels over closed
// files report Failed afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for key, fc := range r.files {
		if err := fc.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", fc.path, err))
		}
		delete(r.files, key)
	}
	return errors.Join(errs...)
}

// MemorySink is the in-memory target of Buffer channels. Reads are safe
// while channels write to it.
type MemorySink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (m *MemorySink) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Write(p)
}

// String returns everything written so far.
func (m *MemorySink) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.String()
}

// Lines returns the written text split into lines, without the trailing
// empty element.
func (m *MemorySink) Lines() []string {
	s := strings.TrimSuffix(m.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Drain returns the content and clears the sink.
func (m *MemorySink) Drain() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.buf.String()
	m.buf.Reset()
	return s
}

// Len returns the number of buffered bytes.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Len()
}
