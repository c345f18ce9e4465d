// Package util provides string helpers for the command line presentation.
package util

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis ends every truncated table cell.
const Ellipsis = "..."

// TruncateANSI truncates a string to maxWidth visual columns, adding "..." if truncated.
// Escape sequences are preserved and take no columns.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= len(Ellipsis) {
		return Ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate includes the tail in the final width calculation
	return ansi.Truncate(s, maxWidth, Ellipsis)
}

// StripANSI removes escape sequences.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// Quote renders s for a table cell: control characters and invalid bytes
// are escaped, printable text (wide and emoji included) is kept.
func Quote(s string) string {
	return strconv.QuoteToGraphic(s)
}
