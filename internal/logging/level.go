package logging

import (
	"strings"

	"github.com/Iron-Ham/termout/internal/cell"
	"github.com/Iron-Ham/termout/internal/sgr"
)

// Level labels a product log line.
type Level uint8

const (
	LevelError Level = iota
	LevelDebug
	LevelInfo
	LevelTest
	LevelWarn
	LevelTime
	LevelOk
	numLevels
)

var levelNames = [numLevels]string{"error", "debug", "info", "test", "warn", "time", "ok"}

func (l Level) String() string {
	if l < numLevels {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevelName maps a level name, case-insensitive, to a Level.
func ParseLevelName(name string) (Level, bool) {
	name = strings.ToLower(name)
	if name == "warning" {
		return LevelWarn, true
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i), true
		}
	}
	return 0, false
}

// LevelNames lists the product levels in order.
func LevelNames() []string { return levelNames[:] }

// Sticker returns the label printed before a line: "[ERROR]" or, with
// emoji, "❌".
func (l Level) Sticker(emoji bool) string {
	type pair struct{ plain, emoji string }
	stickers := [numLevels]pair{
		LevelError: {"[ERROR]", "❌"},
		LevelDebug: {"[DEBUG]", "🪲"},
		LevelInfo:  {"[INFO]", "ℹ️"},
		LevelTest:  {"[TEST]", "⚙️"},
		LevelWarn:  {"[WARN]", "⚠️"},
		LevelTime:  {"[TIME]", "⏱️"},
		LevelOk:    {"[OK]", "✅"},
	}
	p := pair{"[UNKNOWN]", "❓"}
	if l < numLevels {
		p = stickers[l]
	}
	if emoji {
		return p.emoji
	}
	return p.plain
}

// Style returns the sticker colours.
func (l Level) Style() sgr.Format {
	switch l {
	case LevelError:
		return sgr.New(sgr.BrightRed, sgr.Default, sgr.Bold)
	case LevelDebug:
		return sgr.New(sgr.Cyan, sgr.Default, sgr.Bold)
	case LevelInfo:
		return sgr.New(sgr.BrightBlue, sgr.Default, sgr.Bold)
	case LevelWarn:
		return sgr.New(sgr.Yellow, sgr.Default, sgr.Bold)
	case LevelTime, LevelOk:
		return sgr.New(sgr.Green, sgr.Default, sgr.Bold)
	default:
		return sgr.New(sgr.Default, sgr.Default, sgr.Bold)
	}
}

// StickerFormat returns the field format of the sticker: level colours and
// a single trailing pad column.
func (l Level) StickerFormat() cell.Format {
	f := cell.NewFormat()
	f.End = cell.EndPad
	f.Style = l.Style()
	return f
}
