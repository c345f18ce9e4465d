package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/termout/internal/channel"
	"github.com/Iron-Ham/termout/internal/sgr"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config key (e.g., "lock-attempts")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid diagnostics levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate terminal colours
	errors = append(errors, c.validateColors()...)

	// Validate log output
	errors = append(errors, c.validateLogOut()...)

	// Validate diagnostics
	errors = append(errors, c.validateDebug()...)

	// Validate channel and buffer limits
	errors = append(errors, c.validateLimits()...)

	return errors
}

// validateColors validates tty-foreground and tty-background
func (c *Config) validateColors() []ValidationError {
	var errors []ValidationError

	for _, f := range []struct {
		key   string
		color sgr.Color
	}{
		{"tty-foreground", c.TTYForeground},
		{"tty-background", c.TTYBackground},
	} {
		if !f.color.Valid() {
			errors = append(errors, ValidationError{
				Field:   f.key,
				Value:   f.color,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(sgr.ColorNames()[1:], ", ")),
			})
		}
	}

	// Identical known colours leave nothing to contrast against
	if c.TTYForeground != sgr.Default && c.TTYForeground == c.TTYBackground {
		errors = append(errors, ValidationError{
			Field:   "tty-foreground",
			Value:   c.TTYForeground,
			Message: "must differ from tty-background",
		})
	}

	return errors
}

// validateLogOut validates log-out and log-file
func (c *Config) validateLogOut() []ValidationError {
	var errors []ValidationError

	if !c.LogOut.Valid() || c.LogOut.Kind() == channel.Buffer {
		errors = append(errors, ValidationError{
			Field:   "log-out",
			Value:   c.LogOut,
			Message: "must be one of: stdout, stderr, file",
		})
	}
	if c.LogOut.Kind() == channel.File && strings.TrimSpace(c.LogFile) == "" {
		errors = append(errors, ValidationError{
			Field:   "log-file",
			Value:   c.LogFile,
			Message: "must be set when log-out is a file",
		})
	}

	return errors
}

// validateDebug validates the diagnostics settings
func (c *Config) validateDebug() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.DebugLevel)) {
		errors = append(errors, ValidationError{
			Field:   "debug-level",
			Value:   c.DebugLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	const maxSizeMB = 1024
	if c.DebugMaxSizeMB < 1 || c.DebugMaxSizeMB > maxSizeMB {
		errors = append(errors, ValidationError{
			Field:   "debug-max-size-mb",
			Value:   c.DebugMaxSizeMB,
			Message: fmt.Sprintf("must be between 1 and %d", maxSizeMB),
		})
	}
	if c.DebugMaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "debug-max-backups",
			Value:   c.DebugMaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLimits validates the lock and buffer settings
func (c *Config) validateLimits() []ValidationError {
	var errors []ValidationError

	// Lock waits stay bounded
	const maxLockTimeout = time.Second
	if c.LockTimeout <= 0 || c.LockTimeout > maxLockTimeout {
		errors = append(errors, ValidationError{
			Field:   "lock-timeout",
			Value:   c.LockTimeout,
			Message: fmt.Sprintf("must be positive and at most %s", maxLockTimeout),
		})
	}

	const maxAttempts = 100
	if c.LockAttempts < 1 || c.LockAttempts > maxAttempts {
		errors = append(errors, ValidationError{
			Field:   "lock-attempts",
			Value:   c.LockAttempts,
			Message: fmt.Sprintf("must be between 1 and %d", maxAttempts),
		})
	}

	const minScratch = 64
	const maxScratch = 1 << 20
	if c.ScratchSize < minScratch || c.ScratchSize > maxScratch {
		errors = append(errors, ValidationError{
			Field:   "scratch-size",
			Value:   c.ScratchSize,
			Message: fmt.Sprintf("must be between %d and %d bytes", minScratch, maxScratch),
		})
	}

	return errors
}
