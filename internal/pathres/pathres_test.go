package pathres

import (
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/termout/internal/errors"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
}

func newResolver(t *testing.T, files ...string) *Resolver {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/logs", 0o755))
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("old"), 0o644))
	}
	return New(fs).WithClock(fixedClock)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		path     string
		flags    Flags
		want     string
	}{
		{"plain", nil, "/logs/run.log", 0, "/logs/run.log"},
		{"plain existing is reused", []string{"/logs/run.log"}, "/logs/run.log", Append, "/logs/run.log"},
		{"time index", nil, "/logs/run.log", TimeIndex, "/logs/run_2024-03-09_14.05.07.log"},
		{"indexing free", nil, "/logs/run.log", Indexing, "/logs/run.log"},
		{"indexing collision", []string{"/logs/run.log", "/logs/run(1).log"}, "/logs/run.log", Indexing, "/logs/run(2).log"},
		{"indexing with timestamp", []string{"/logs/run_2024-03-09_14.05.07.log"}, "/logs/run.log", Indexing | TimeIndex, "/logs/run_2024-03-09_14.05.07(1).log"},
		{"no extension", []string{"/logs/run"}, "/logs/run", Indexing, "/logs/run(1)"},
		{"dot file", []string{"/logs/.env"}, "/logs/.env", Indexing, "/logs/.env(1)"},
		{"create dirs", nil, "/logs/a/b/run.log", CreateDirs, "/logs/a/b/run.log"},
		{"relative", nil, "run.log", 0, "run.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(t, tt.existing...)
			got, err := r.Resolve(tt.path, tt.flags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_CreateDirsMakesParent(t *testing.T) {
	r := newResolver(t)
	_, err := r.Resolve("/logs/deep/nested/run.log", CreateDirs)
	require.NoError(t, err)
	ok, err := afero.DirExists(r.Fs(), "/logs/deep/nested")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolve_Errors(t *testing.T) {
	r := newResolver(t)

	_, err := r.Resolve("", 0)
	assert.ErrorIs(t, err, errors.ErrPathUnavailable)

	_, err = r.Resolve("/missing/run.log", 0)
	assert.ErrorIs(t, err, errors.ErrPathUnavailable)
	assert.Contains(t, err.Error(), "parent directory does not exist")
}

func TestResolve_IndexExhausted(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/x.log", nil, 0o644))
	for n := 1; n <= MaxIndex; n++ {
		require.NoError(t, afero.WriteFile(fs, "/x("+strconv.Itoa(n)+").log", nil, 0o644))
	}
	_, err := New(fs).Resolve("/x.log", Indexing)
	assert.ErrorIs(t, err, errors.ErrPathUnavailable)
}

func TestOpen_TruncateAndAppend(t *testing.T) {
	r := newResolver(t, "/logs/run.log")

	f, path, err := r.Open("/logs/run.log", 0)
	require.NoError(t, err)
	assert.Equal(t, "/logs/run.log", path)
	_, err = io.WriteString(f, "new")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := afero.ReadFile(r.Fs(), path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	f, _, err = r.Open("/logs/run.log", Append)
	require.NoError(t, err)
	_, err = io.WriteString(f, "+more")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err = afero.ReadFile(r.Fs(), path)
	require.NoError(t, err)
	assert.Equal(t, "new+more", string(data))
}

func TestOpen_ReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/logs", 0o755))
	r := New(afero.NewReadOnlyFs(base))

	_, _, err := r.Open("/logs/run.log", 0)
	assert.ErrorIs(t, err, errors.ErrPathUnavailable)
}
