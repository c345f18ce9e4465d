package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/errors"
	"github.com/Iron-Ham/termout/internal/sgr"
)

func newViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		t.Fatalf("bind flags: %v", err)
	}
	return v
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.TTYForeground != sgr.White {
		t.Errorf("TTYForeground = %v, want White", cfg.TTYForeground)
	}
	if cfg.TTYBackground != sgr.Black {
		t.Errorf("TTYBackground = %v, want Black", cfg.TTYBackground)
	}
	if cfg.LogOut != channel.Stdout {
		t.Errorf("LogOut = %v, want Stdout", cfg.LogOut)
	}
	if cfg.LogFile != DefaultLogFile {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, DefaultLogFile)
	}
	if cfg.LockTimeout != channel.DefaultLockTimeout {
		t.Errorf("LockTimeout = %v, want %v", cfg.LockTimeout, channel.DefaultLockTimeout)
	}
	if cfg.LockAttempts != channel.DefaultAttempts {
		t.Errorf("LockAttempts = %d, want %d", cfg.LockAttempts, channel.DefaultAttempts)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() does not validate: %v", ValidationErrors(errs))
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want %+v", *cfg, *Default())
	}
}

func TestLoad_Precedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := strings.Join([]string{
		"# terminal",
		"no-emoji",
		"tty-background=blue",
		"",
		"log-out=stderr",
		"lock-attempts=7",
	}, "\n")
	if err := afero.WriteFile(fs, "/etc/termout.conf", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v := newViper(t, "--log-out=file", "--no-tty")
	if err := ReadFile(v, fs, "/etc/termout.conf"); err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.NoEmoji {
		t.Error("NoEmoji should come from the file")
	}
	if !cfg.NoTTY {
		t.Error("NoTTY should come from the command line")
	}
	if cfg.TTYBackground != sgr.Blue {
		t.Errorf("TTYBackground = %v, want Blue", cfg.TTYBackground)
	}
	if cfg.LockAttempts != 7 {
		t.Errorf("LockAttempts = %d, want 7", cfg.LockAttempts)
	}
	want := channel.File | channel.TimeIndex | channel.CreateDirs
	if cfg.LogOut != want {
		t.Errorf("LogOut = %v, want %v (command line wins)", cfg.LogOut, want)
	}
	if cfg.NoANSI {
		t.Error("NoANSI should keep its default")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "log-out: stderr\nlock-timeout: 250us\ntty-foreground: bright-yellow\n"
	if err := afero.WriteFile(fs, "/cfg/termout.yaml", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v := newViper(t)
	if err := ReadFile(v, fs, "/cfg/termout.yaml"); err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogOut != channel.Stderr {
		t.Errorf("LogOut = %v, want Stderr", cfg.LogOut)
	}
	if cfg.LockTimeout != 250*time.Microsecond {
		t.Errorf("LockTimeout = %v, want 250µs", cfg.LockTimeout)
	}
	if cfg.TTYForeground != sgr.BrightYellow {
		t.Errorf("TTYForeground = %v, want BrightYellow", cfg.TTYForeground)
	}
}

func TestLoad_RejectsDefaultColor(t *testing.T) {
	v := newViper(t, "--tty-foreground=default")
	_, err := Load(v)
	if err == nil {
		t.Fatal("Load() should reject an explicit default colour")
	}
	if !errors.Is(err, errors.ErrBadValue) {
		t.Errorf("Load() error = %v, want ErrBadValue", err)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	v := newViper(t, "--lock-attempts=0", "--debug-level=loud")
	_, err := Load(v)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Load() error = %v, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("got %d validation errors, want 2: %v", len(verrs), verrs)
	}
}

func TestReadFile_Missing(t *testing.T) {
	v := newViper(t)
	err := ReadFile(v, afero.NewMemMapFs(), "/nope/termout.conf")
	if !errors.Is(err, errors.ErrConfigFile) {
		t.Fatalf("ReadFile() error = %v, want ErrConfigFile", err)
	}
	var ce *errors.ConfigError
	if !errors.As(err, &ce) || ce.Source != "/nope/termout.conf" {
		t.Errorf("error should name the file, got %v", err)
	}
}

func TestParseTTYColor(t *testing.T) {
	tests := []struct {
		in      string
		want    sgr.Color
		wantErr bool
	}{
		{"white", sgr.White, false},
		{"Bright_Black", sgr.BrightBlack, false},
		{"auto", sgr.Default, false},
		{"AUTO", sgr.Default, false},
		{"default", sgr.Default, true},
		{"mauve", sgr.Default, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTYColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTTYColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTTYColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogOut(t *testing.T) {
	tests := []struct {
		in      string
		want    channel.Selector
		wantErr bool
	}{
		{"stdout", channel.Stdout, false},
		{"stderr", channel.Stderr, false},
		{"file", channel.File | channel.TimeIndex | channel.CreateDirs, false},
		{"file|append", channel.File | channel.Append, false},
		{"printer", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogOut(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogOut(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogOut(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestChannelOptions(t *testing.T) {
	cfg := Default()
	cfg.LockAttempts = 5
	cfg.LockTimeout = time.Millisecond
	opts := cfg.ChannelOptions()
	if opts.Attempts != 5 || opts.LockTimeout != time.Millisecond {
		t.Errorf("ChannelOptions() = %+v", opts)
	}
}
