package channel

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/termout/internal/errors"
	"github.com/Iron-Ham/termout/internal/pathres"
)

// Selector picks an output sink and, for files, how the file is prepared.
// The high three bits hold the sink kind; the low five bits hold file flags.
type Selector uint8

const (
	Stdout Selector = 0x00
	Stderr Selector = 0x20
	File   Selector = 0x40
	Buffer Selector = 0x60

	Append     Selector = 0x01
	Indexing   Selector = 0x02
	TimeIndex  Selector = 0x04
	CreateDirs Selector = 0x08

	KindMask Selector = 0xE0
	FlagMask Selector = 0x1F

	knownFlags = Append | Indexing | TimeIndex | CreateDirs
)

// NewSelector combines a sink kind with file flags. Flags are only valid
// with File.
func NewSelector(kind Selector, flags ...Selector) (Selector, error) {
	if kind&FlagMask != 0 || kind.Kind() > Buffer {
		return 0, fmt.Errorf("%w: kind %#02x", errors.ErrInvalidSelector, uint8(kind))
	}
	s := kind
	for _, f := range flags {
		if f&KindMask != 0 || f&^knownFlags != 0 {
			return 0, fmt.Errorf("%w: flag %#02x", errors.ErrInvalidSelector, uint8(f))
		}
		s |= f
	}
	if kind != File && s&FlagMask != 0 {
		return 0, fmt.Errorf("%w: flags require File, got %s", errors.ErrInvalidSelector, kind)
	}
	return s, nil
}

// Kind returns the sink kind without flags.
func (s Selector) Kind() Selector { return s & KindMask }

// Flags returns the flag bits.
func (s Selector) Flags() Selector { return s & FlagMask }

// Has reports whether every bit of flag is set.
func (s Selector) Has(flag Selector) bool { return s&flag == flag }

// SupportsTTY reports whether the sink can be a terminal.
func (s Selector) SupportsTTY() bool {
	k := s.Kind()
	return k == Stdout || k == Stderr
}

// PathFlags converts the file flags for path preparation.
func (s Selector) PathFlags() pathres.Flags {
	return pathres.Flags(s & knownFlags)
}

// Valid reports whether s could have been built by NewSelector.
func (s Selector) Valid() bool {
	if s&FlagMask&^knownFlags != 0 {
		return false
	}
	return s.Kind() == File || s.Flags() == 0
}

func (s Selector) String() string {
	switch s.Kind() {
	case Stdout:
		return "Stdout"
	case Stderr:
		return "Stderr"
	case Buffer:
		return "Buffer"
	case File:
		var b strings.Builder
		b.WriteString("File")
		if s.Has(Append) {
			b.WriteString("|Append")
		}
		if s.Has(Indexing) {
			b.WriteString("|Indexing")
		}
		if s.Has(TimeIndex) {
			b.WriteString("|TimeIndex")
		}
		if s.Has(CreateDirs) {
			b.WriteString("|CreateDirs")
		}
		return b.String()
	default:
		return fmt.Sprintf("Selector(%#02x)", uint8(s))
	}
}

var selectorNames = map[string]Selector{
	"stdout":     Stdout,
	"stderr":     Stderr,
	"file":       File,
	"buffer":     Buffer,
	"append":     Append,
	"indexing":   Indexing,
	"timeindex":  TimeIndex,
	"createdirs": CreateDirs,
}

// ParseSelector parses "stdout", "stderr", "file" or "buffer", optionally
// followed by "|"-separated file flags as printed by String, e.g.
// "file|append|createdirs". Matching ignores case.
func ParseSelector(text string) (Selector, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(text)), "|")
	kind, ok := selectorNames[strings.TrimSpace(parts[0])]
	if !ok || kind&FlagMask != 0 {
		return 0, fmt.Errorf("%w: unknown output %q", errors.ErrInvalidSelector, text)
	}
	flags := make([]Selector, 0, len(parts)-1)
	for _, p := range parts[1:] {
		f, ok := selectorNames[strings.TrimSpace(p)]
		if !ok || f&KindMask != 0 || f == Stdout {
			return 0, fmt.Errorf("%w: unknown flag %q", errors.ErrInvalidSelector, p)
		}
		flags = append(flags, f)
	}
	return NewSelector(kind, flags...)
}

// MarshalText implements encoding.TextMarshaler.
func (s Selector) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Selector) UnmarshalText(text []byte) error {
	v, err := ParseSelector(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
