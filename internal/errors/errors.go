// Package errors provides centralized error definitions and error handling utilities
// for termout. It defines the output engine's error taxonomy, error constructors
// with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain errors represent failures of a specific subsystem:
//   - ConfigError: malformed command line parameter or config file entry
//   - ContentionError: the output lock could not be taken within its budget
//   - IOFailureError: a sink is broken (write or flush failed)
//   - LogicError: caller supplied status, detail and fatal flag
//   - OverflowError: a bounded buffer refused bytes
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
//	err := errors.NewConfigError("unknown parameter", errors.ErrUnknownKey).
//		WithSource("config.ini").WithLine(12).WithKey("log-outt")
//
//	var ce *errors.ConfigError
//	if errors.As(err, &ce) { ... }
//
//	if errors.IsRetryable(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: contention is transient, everything else is not
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions so callers need only this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for degraded but recoverable conditions.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that should end the process.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Configuration sentinel errors
var (
	// ErrUnknownKey indicates a flag or parameter name that is not recognized.
	ErrUnknownKey = New("unknown key")
	// ErrMissingValue indicates a parameter given without "=value".
	ErrMissingValue = New("missing value")
	// ErrBadValue indicates a value that could not be parsed for its key.
	ErrBadValue = New("bad value")
	// ErrConfigFile indicates the config file could not be read.
	ErrConfigFile = New("config file unreadable")
)

// Output sentinel errors
var (
	// ErrContended indicates the sink lock was not acquired in time.
	ErrContended = New("output contended")
	// ErrSinkBroken indicates a write or flush to the sink failed.
	ErrSinkBroken = New("output sink broken")
	// ErrInvalidSelector indicates a malformed channel selector byte.
	ErrInvalidSelector = New("invalid output selector")
	// ErrPathUnavailable indicates no usable log file path could be prepared.
	ErrPathUnavailable = New("output path unavailable")
)

// Buffer sentinel errors
var (
	// ErrOverflow indicates bytes were dropped by a bounded buffer.
	ErrOverflow = New("buffer overflow")
	// ErrEmbeddedNUL indicates a fragment containing a NUL byte.
	ErrEmbeddedNUL = New("embedded NUL byte")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TermoutError is the base interface for all termout errors.
type TermoutError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Message returns the message without the cause.
func (e *baseError) Message() string {
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// format renders "kind [k=v, ...]: message: cause".
func (e *baseError) format(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ConfigError represents a malformed command line parameter or config file
// entry. Whether it is fatal is the caller's decision.
//
// Example:
//
//	err := errors.NewConfigError("unknown parameter", errors.ErrUnknownKey)
//	err = err.WithSource("config.ini").WithLine(3).WithKey("colour")
//	fmt.Println(err) // "config error [source=config.ini, line=3, key=colour]: unknown parameter: unknown key"
type ConfigError struct {
	baseError
	Source string
	Line   int
	Key    string
	Value  string
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithSource records where the entry came from ("cmdline" or a file path).
func (e *ConfigError) WithSource(source string) *ConfigError {
	e.Source = source
	return e
}

// WithLine records the 1-based line number of a config file entry.
func (e *ConfigError) WithLine(line int) *ConfigError {
	e.Line = line
	return e
}

// WithKey records the offending key.
func (e *ConfigError) WithKey(key string) *ConfigError {
	e.Key = key
	return e
}

// WithValue records the offending value.
func (e *ConfigError) WithValue(value string) *ConfigError {
	e.Value = value
	return e
}

// WithSeverity sets the error severity.
func (e *ConfigError) WithSeverity(s Severity) *ConfigError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ConfigError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("source=%s", e.Source))
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line=%d", e.Line))
	}
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	if e.Value != "" {
		parts = append(parts, fmt.Sprintf("value=%q", e.Value))
	}
	return e.format("config error", parts)
}

// Is checks if this error matches the target.
func (e *ConfigError) Is(target error) bool {
	if _, ok := target.(*ConfigError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ContentionError reports that every attempt to take a sink lock timed out.
// It is the only retryable output error.
type ContentionError struct {
	baseError
	Sink     string
	Attempts int
	Wait     time.Duration
}

// NewContentionError creates a new ContentionError for the named sink.
func NewContentionError(sink string, attempts int, wait time.Duration) *ContentionError {
	return &ContentionError{
		baseError: baseError{
			message:   "lock not acquired",
			cause:     ErrContended,
			severity:  SeverityWarning,
			retryable: true,
		},
		Sink:     sink,
		Attempts: attempts,
		Wait:     wait,
	}
}

// Error returns the formatted error message.
func (e *ContentionError) Error() string {
	parts := []string{
		fmt.Sprintf("sink=%s", e.Sink),
		fmt.Sprintf("attempts=%d", e.Attempts),
		fmt.Sprintf("wait=%s", e.Wait),
	}
	return e.format("io contention", parts)
}

// Is checks if this error matches the target.
func (e *ContentionError) Is(target error) bool {
	if _, ok := target.(*ContentionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// IOFailureError reports a broken sink.
type IOFailureError struct {
	baseError
	Sink  string
	Errno int
}

// NewIOFailureError creates a new IOFailureError wrapping the sink error.
func NewIOFailureError(sink string, cause error) *IOFailureError {
	if cause == nil {
		cause = ErrSinkBroken
	}
	return &IOFailureError{
		baseError: baseError{
			message:  "write failed",
			cause:    cause,
			severity: SeverityError,
		},
		Sink: sink,
	}
}

// WithErrno records the OS error number, if one was recovered.
func (e *IOFailureError) WithErrno(errno int) *IOFailureError {
	e.Errno = errno
	return e
}

// Error returns the formatted error message.
func (e *IOFailureError) Error() string {
	parts := []string{fmt.Sprintf("sink=%s", e.Sink)}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}
	return e.format("io failure", parts)
}

// Is checks if this error matches the target.
func (e *IOFailureError) Is(target error) bool {
	if _, ok := target.(*IOFailureError); ok {
		return true
	}
	if target == ErrSinkBroken {
		return true
	}
	return e.baseError.Is(target)
}

// LogicError carries a caller supplied status and detail. Fatal logic errors
// are rendered with critical severity.
//
// Example:
//
//	err := errors.NewLogicError("scene load failed", "missing camera", true)
//	fmt.Println(err) // "scene load failed: missing camera"
type LogicError struct {
	baseError
	Status string
	Detail string
	Fatal  bool
}

// NewLogicError creates a new LogicError.
func NewLogicError(status, detail string, fatal bool) *LogicError {
	sev := SeverityError
	if fatal {
		sev = SeverityCritical
	}
	return &LogicError{
		baseError: baseError{
			message:    status,
			severity:   sev,
			userFacing: true,
		},
		Status: status,
		Detail: detail,
		Fatal:  fatal,
	}
}

// WithCause attaches an underlying error.
func (e *LogicError) WithCause(cause error) *LogicError {
	e.cause = cause
	return e
}

// Error returns "status: detail" or just the status.
func (e *LogicError) Error() string {
	msg := e.Status
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Is checks if this error matches the target.
func (e *LogicError) Is(target error) bool {
	if _, ok := target.(*LogicError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// OverflowError reports bytes dropped by a bounded buffer. It is never fatal.
type OverflowError struct {
	baseError
	Capacity int
	Dropped  int
}

// NewOverflowError creates a new OverflowError.
func NewOverflowError(capacity, dropped int) *OverflowError {
	return &OverflowError{
		baseError: baseError{
			message:  "fragment truncated",
			cause:    ErrOverflow,
			severity: SeverityWarning,
		},
		Capacity: capacity,
		Dropped:  dropped,
	}
}

// Error returns the formatted error message.
func (e *OverflowError) Error() string {
	parts := []string{
		fmt.Sprintf("capacity=%d", e.Capacity),
		fmt.Sprintf("dropped=%d", e.Dropped),
	}
	return e.format("buffer overflow", parts)
}

// Is checks if this error matches the target.
func (e *OverflowError) Is(target error) bool {
	if _, ok := target.(*OverflowError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			cause:      ErrInvalidInput,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField sets the name of the field that failed validation.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue sets the invalid value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    "operation timed out",
			cause:      ErrTimeout,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s after %v", e.Operation, e.Duration)
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te TermoutError
	if As(err, &te) {
		return te.IsRetryable()
	}
	return Is(err, ErrTimeout) || Is(err, ErrContended)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var te TermoutError
	if As(err, &te) {
		return te.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement TermoutError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var te TermoutError
	if As(err, &te) {
		return te.Severity()
	}
	return SeverityError
}

// IsFatal reports whether err carries a fatal LogicError.
func IsFatal(err error) bool {
	var le *LogicError
	return As(err, &le) && le.Fatal
}

// IsIOFailure reports whether err is a sink failure or a contention timeout.
func IsIOFailure(err error) bool {
	var fe *IOFailureError
	var ce *ContentionError
	return As(err, &fe) || As(err, &ce)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
