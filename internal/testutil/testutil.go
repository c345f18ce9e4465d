// Package testutil provides testing utilities for termout tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/creack/pty"
)

// SetLocale pins the locale variables consulted by UTF-8 detection. An
// empty lang clears them all.
func SetLocale(t *testing.T, lang string) {
	t.Helper()
	t.Setenv("LANG", lang)
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
}

// OpenPTY opens a pseudo-terminal pair sized to cols columns. The test is
// skipped where pseudo-terminals are unavailable. Both ends are closed
// when the test completes.
func OpenPTY(t *testing.T, cols uint16) (ptmx, tty *os.File) {
	t.Helper()

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = tty.Close()
		_ = ptmx.Close()
	})
	if cols > 0 {
		if err := pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: cols}); err != nil {
			t.Fatalf("failed to size pty: %v", err)
		}
	}
	return ptmx, tty
}

// WriteFile writes content to name under dir, creating parent directories,
// and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// Chdir changes the working directory for the rest of the test.
func Chdir(t *testing.T, dir string) {
	t.Helper()

	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change to %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}
