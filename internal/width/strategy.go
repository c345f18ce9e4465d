package width

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Strategy selects how strings are split into clusters before measuring.
type Strategy int

const (
	// Classic uses the display unit rules of this package.
	Classic Strategy = iota
	// Grapheme uses Unicode extended grapheme clusters (UAX #29) and the
	// cluster widths computed by uniseg.
	Grapheme
)

// String returns the strategy name accepted by ParseStrategy.
func (s Strategy) String() string {
	switch s {
	case Classic:
		return "classic"
	case Grapheme:
		return "grapheme"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses "classic" or "grapheme".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "classic":
		return Classic, nil
	case "grapheme", "uniseg":
		return Grapheme, nil
	default:
		return Classic, fmt.Errorf("unknown width strategy %q (valid: classic, grapheme)", name)
	}
}

// Width measures s with the strategy. Normalize has the same meaning as in
// TerminalWidth.
func (s Strategy) Width(text string, normalize bool) int {
	if s == Grapheme {
		return graphemeWidth(text, normalize)
	}
	return TerminalWidth(text, normalize)
}

// Clusters returns the byte ranges the strategy treats as indivisible, as
// units with offsets relative to text.
func (s Strategy) Clusters(text string) []Unit {
	var out []Unit
	if s != Grapheme {
		for u := range Units(text) {
			out = append(out, u)
		}
		return out
	}
	state := -1
	off := 0
	rest := text
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		valid := clusterValid(cluster)
		if !valid {
			w = 1
		}
		out = append(out, Unit{Offset: off, Len: len(cluster), Width: w, Valid: valid})
		off += len(cluster)
	}
	return out
}

func graphemeWidth(text string, normalize bool) int {
	total := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if !clusterValid(cluster) {
			if !normalize {
				return Unknown
			}
			w = 1
		}
		total += w
	}
	return total
}

// clusterValid rejects clusters holding malformed UTF-8 or starting with a
// control character.
func clusterValid(cluster string) bool {
	if !utf8.ValidString(cluster) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(cluster)
	return RuneWidth(r) >= 0
}
