package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		expected string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact width unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"tiny width is an ellipsis", "hello", 3, "..."},
		{"negative width is an ellipsis", "hello", -1, "..."},
		{"empty string unchanged", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateANSI(tt.input, tt.maxWidth); got != tt.expected {
				t.Errorf("TruncateANSI(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.expected)
			}
		})
	}
}

func TestTruncateANSI_Styled(t *testing.T) {
	styled := "\x1b[1mhello world\x1b[0m"
	got := TruncateANSI(styled, 8)
	if w := lipgloss.Width(got); w > 8 {
		t.Errorf("width of %q = %d, want <= 8", got, w)
	}
	if StripANSI(got) != "hello..." {
		t.Errorf("visible text = %q, want %q", StripANSI(got), "hello...")
	}
}

func TestTruncateANSI_Wide(t *testing.T) {
	got := TruncateANSI("日本語テスト", 7)
	if w := lipgloss.Width(got); w > 7 {
		t.Errorf("width of %q = %d, want <= 7", got, w)
	}
}

func TestStripANSI(t *testing.T) {
	if got := StripANSI("\x1b[31mred\x1b[0m plain"); got != "red plain" {
		t.Errorf("StripANSI = %q", got)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc", `"abc"`},
		{"a\tb", `"a\tb"`},
		{"日本", `"日本"`},
		{"\x1b[0m", `"\x1b[0m"`},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
