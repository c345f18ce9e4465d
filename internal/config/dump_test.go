package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/termout/internal/channel"
)

func dumpContext() *Context {
	ctx := NewContext()
	ctx.ANSIAllowed = false
	ctx.SetOutput(channel.File | channel.TimeIndex | channel.CreateDirs)
	ctx.Warnings.Set(Utf8NotInitialized)
	return ctx
}

func TestDump_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, "text", Default(), dumpContext()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\nCONFIG DUMP ================\nLogging:\n"))
	assert.True(t, strings.HasSuffix(out, "CONFIG DUMP END ============\n\n"))
	assert.Contains(t, out, "  tty_foreground: White\n")
	assert.Contains(t, out, "  ansi_allowed:   false\n")
	assert.Contains(t, out, "  log_out:        File|TimeIndex|CreateDirs\n")
	assert.Contains(t, out, "  log_warns:      Utf8NotInitialized\n")
	assert.Contains(t, out, "  lock_timeout:   100µs\n")
}

func TestDump_Structured(t *testing.T) {
	cfg := Default()
	ctx := dumpContext()
	want := TakeSnapshot(cfg, ctx)

	decoders := map[string]func([]byte, any) error{
		"yaml": yaml.Unmarshal,
		"toml": toml.Unmarshal,
		"json": json.Unmarshal,
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Dump(&buf, format, cfg, ctx))
			var got Snapshot
			require.NoError(t, decode(buf.Bytes(), &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestDump_UnknownFormat(t *testing.T) {
	err := Dump(&bytes.Buffer{}, "xml", Default(), NewContext())
	assert.Error(t, err)
}

func TestWarnings(t *testing.T) {
	var w Warnings
	assert.False(t, w.Has(LoggerWriteFailed))

	w.Set(LoggerWriteFailed)
	w.Set(LoggerWriteFailed)
	w.Set(LocaleActivationFailed)
	assert.True(t, w.Has(LoggerWriteFailed))
	assert.True(t, w.Has(LocaleActivationFailed|LoggerWriteFailed))
	assert.Equal(t, "LocaleActivationFailed|LoggerWriteFailed", w.Load().String())

	taken := w.Take()
	assert.Equal(t, []Warning{LocaleActivationFailed, LoggerWriteFailed}, taken.Split())
	assert.Equal(t, Warning(0), w.Take(), "warnings are taken once")
	assert.Equal(t, "None", Warning(0).String())
}

func TestWarningMessages(t *testing.T) {
	all := LocaleActivationFailed | Utf8NotInitialized | LoggingBufferFailed |
		LoggerWriteFailed | LoggerFileCloseFailed
	for _, w := range all.Split() {
		assert.NotEmpty(t, w.Message(), w.String())
	}
	assert.Equal(t, "LoggerSink write() failed. Output stream is null or unreachable.",
		LoggerWriteFailed.Message())
	assert.Empty(t, all.Message(), "a combined set has no single message")
}

func TestContext(t *testing.T) {
	ctx := NewContext()
	assert.True(t, ctx.CanUseANSI(channel.Stdout))
	assert.True(t, ctx.CanUseANSI(channel.Stderr))
	assert.False(t, ctx.CanUseTTY(channel.File))
	assert.False(t, ctx.CanUseANSI(channel.Buffer))

	prev := ctx.SetOutput(channel.Buffer)
	assert.Equal(t, channel.Stdout, prev)
	assert.Equal(t, channel.Buffer, ctx.Output())

	ctx.UTF8 = false
	assert.False(t, ctx.CanUseEmoji(), "emoji needs UTF-8")

	plain := Plain()
	assert.False(t, plain.CanUseTTY(channel.Stdout))
	assert.False(t, plain.CanUseUTF8())

	ctx.Warn(LoggingBufferFailed)
	assert.True(t, ctx.Warnings.Has(LoggingBufferFailed))
}
