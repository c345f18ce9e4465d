package config

import (
	"math/bits"
	"sync/atomic"
)

// Warning is one deferred warning. Warnings are collected while the
// process runs and printed once at shutdown, one line each.
type Warning uint8

const (
	LocaleActivationFailed Warning = 1 << iota
	Utf8NotInitialized
	LoggingBufferFailed
	LoggerWriteFailed
	LoggerFileCloseFailed

	warningCount = iota
)

var warningMessages = [warningCount]string{
	"Failed to activate UTF-8 locale from environment. Unicode alignment may be incorrect.",
	"UTF-8 locale not initialized or unsupported. Unicode alignment may be incorrect.",
	"Failed to create logger buffer. Data alignment may be incorrect.",
	"LoggerSink write() failed. Output stream is null or unreachable.",
	"LoggerSink failed to close output file stream. Exception suppressed.",
}

var warningNames = [warningCount]string{
	"LocaleActivationFailed",
	"Utf8NotInitialized",
	"LoggingBufferFailed",
	"LoggerWriteFailed",
	"LoggerFileCloseFailed",
}

// Message returns the text printed for a single warning bit.
func (w Warning) Message() string {
	if i, ok := w.index(); ok {
		return warningMessages[i]
	}
	return ""
}

func (w Warning) String() string {
	if w == 0 {
		return "None"
	}
	if i, ok := w.index(); ok {
		return warningNames[i]
	}
	s := ""
	for _, one := range w.Split() {
		if s != "" {
			s += "|"
		}
		s += one.String()
	}
	return s
}

func (w Warning) index() (int, bool) {
	if bits.OnesCount8(uint8(w)) != 1 {
		return 0, false
	}
	i := bits.TrailingZeros8(uint8(w))
	return i, i < warningCount
}

// Split returns the set bits of w in flag order.
func (w Warning) Split() []Warning {
	var out []Warning
	for i := range warningCount {
		if bit := Warning(1 << i); w&bit != 0 {
			out = append(out, bit)
		}
	}
	return out
}

// Warnings is a process-lifetime warning set, safe for concurrent use.
type Warnings struct {
	bits atomic.Uint32
}

// Set adds w to the set.
func (s *Warnings) Set(w Warning) {
	s.bits.Or(uint32(w))
}

// Has reports whether every bit of w is set.
func (s *Warnings) Has(w Warning) bool {
	return Warning(s.bits.Load())&w == w
}

// Load returns the current set without clearing it.
func (s *Warnings) Load() Warning {
	return Warning(s.bits.Load())
}

// Take returns the current set and clears it, so each warning is flushed
// at most once.
func (s *Warnings) Take() Warning {
	return Warning(s.bits.Swap(0))
}
