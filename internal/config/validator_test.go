package config

import (
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/sgr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"unknown colour", func(c *Config) { c.TTYForeground = sgr.Color(200) }, "tty-foreground"},
		{"same colours", func(c *Config) { c.TTYBackground = sgr.White }, "tty-foreground"},
		{"buffer output", func(c *Config) { c.LogOut = channel.Buffer }, "log-out"},
		{"file without name", func(c *Config) { c.LogOut = channel.File; c.LogFile = " " }, "log-file"},
		{"bad level", func(c *Config) { c.DebugLevel = "trace" }, "debug-level"},
		{"upper level ok", func(c *Config) { c.DebugLevel = "WARN" }, ""},
		{"zero size", func(c *Config) { c.DebugMaxSizeMB = 0 }, "debug-max-size-mb"},
		{"negative backups", func(c *Config) { c.DebugMaxBackups = -1 }, "debug-max-backups"},
		{"zero timeout", func(c *Config) { c.LockTimeout = 0 }, "lock-timeout"},
		{"long timeout", func(c *Config) { c.LockTimeout = 2 * time.Second }, "lock-timeout"},
		{"no attempts", func(c *Config) { c.LockAttempts = 0 }, "lock-attempts"},
		{"tiny scratch", func(c *Config) { c.ScratchSize = 8 }, "scratch-size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			errs := cfg.Validate()
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("Validate() = %v, want none", errs)
				}
				return
			}
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	if got := ValidationErrors(nil).Error(); got != "" {
		t.Errorf("empty Error() = %q", got)
	}

	one := ValidationErrors{{Field: "lock-attempts", Value: 0, Message: "must be between 1 and 100"}}
	if got, want := one.Error(), "lock-attempts: must be between 1 and 100 (got: 0)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	two := append(one, ValidationError{Field: "debug-level", Value: "x", Message: "bad"})
	got := two.Error()
	if !strings.HasPrefix(got, "2 validation errors:\n") || !strings.Contains(got, "  2. debug-level: bad (got: x)\n") {
		t.Errorf("Error() = %q", got)
	}
}
