package logging

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/spf13/afero"
)

const chunkSize = 600 * 1024

func chunk(b byte) []byte { return bytes.Repeat([]byte{b}, chunkSize) }

func mustRead(t *testing.T, fs afero.Fs, path string) []byte {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		rw, err := NewRotatingWriter(fs, "/a/b/c/test.log", DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if ok, _ := afero.Exists(fs, "/a/b/c/test.log"); !ok {
			t.Error("log file was not created")
		}
		if rw.Path() != "/a/b/c/test.log" {
			t.Errorf("Path() = %q", rw.Path())
		}
	})

	t.Run("appends to existing file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		if err := afero.WriteFile(fs, "/test.log", []byte("initial\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		rw, err := NewRotatingWriter(fs, "/test.log", DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		if rw.Size() != int64(len("initial\n")) {
			t.Errorf("Size() = %d, want existing size", rw.Size())
		}
		if _, err := rw.Write([]byte("appended\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		_ = rw.Close()

		if got := string(mustRead(t, fs, "/test.log")); got != "initial\nappended\n" {
			t.Errorf("content = %q", got)
		}
	})
}

func TestRotation(t *testing.T) {
	fs := afero.NewMemMapFs()
	rw, err := NewRotatingWriter(fs, "/test.log", RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	for _, b := range []byte{'a', 'b', 'c', 'd'} {
		if _, err := rw.Write(chunk(b)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	want := map[string]byte{"/test.log": 'd', "/test.log.1": 'c', "/test.log.2": 'b'}
	for path, b := range want {
		if !bytes.Equal(mustRead(t, fs, path), chunk(b)) {
			t.Errorf("%s does not hold chunk %q", path, b)
		}
	}
	if ok, _ := afero.Exists(fs, "/test.log.3"); ok {
		t.Error("backups beyond MaxBackups were kept")
	}
}

func TestRotationWithoutBackups(t *testing.T) {
	fs := afero.NewMemMapFs()
	rw, err := NewRotatingWriter(fs, "/test.log", RotationConfig{MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	_, _ = rw.Write(chunk('a'))
	_, _ = rw.Write(chunk('b'))
	_ = rw.Close()

	if !bytes.Equal(mustRead(t, fs, "/test.log"), chunk('b')) {
		t.Error("live file should hold only the last chunk")
	}
	if ok, _ := afero.Exists(fs, "/test.log.1"); ok {
		t.Error("no backup should be kept")
	}
}

func TestRotationCompress(t *testing.T) {
	fs := afero.NewMemMapFs()
	rw, err := NewRotatingWriter(fs, "/test.log", RotationConfig{MaxSizeMB: 1, MaxBackups: 1, Compress: true})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	_, _ = rw.Write(chunk('a'))
	_, _ = rw.Write(chunk('b'))
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if ok, _ := afero.Exists(fs, "/test.log.1"); ok {
		t.Error("uncompressed backup should be removed")
	}
	f, err := fs.Open("/test.log.1.gz")
	if err != nil {
		t.Fatalf("compressed backup missing: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(data, chunk('a')) {
		t.Error("compressed backup holds the wrong data")
	}
}

func TestRotatingWriterClosed(t *testing.T) {
	rw, err := NewRotatingWriter(afero.NewMemMapFs(), "/test.log", RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := rw.Write([]byte("late")); err == nil {
		t.Error("expected an error writing to a closed writer")
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync after Close returned %v", err)
	}
}
