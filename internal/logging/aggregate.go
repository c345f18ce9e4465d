package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Entry is one parsed diagnostics line.
type Entry struct {
	Time      time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	Component string         `json:"component,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// Filter selects entries. Empty fields match everything; set fields are
// combined with AND.
type Filter struct {
	// Level keeps entries at or above it (DEBUG < INFO < WARN < ERROR).
	Level     string
	Since     time.Time
	Until     time.Time
	Component string
	Contains  string
}

var levelOrder = map[string]int{
	LevelDebugName: 0,
	LevelInfoName:  1,
	LevelWarnName:  2,
	LevelErrorName: 3,
}

const maxEntrySize = 1024 * 1024

// ReadEntries parses the diagnostics file at path, oldest first. Lines
// that are not JSON objects are skipped.
func ReadEntries(fs afero.Fs, path string) ([]Entry, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics log: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseEntries(f)
}

// ParseEntries reads JSON lines from r, oldest first.
func ParseEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEntrySize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read diagnostics log: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
	return entries, nil
}

func parseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("invalid JSON: %w", err)
	}
	e := Entry{Attrs: make(map[string]any)}
	if s, ok := raw["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			e.Time = t
		}
	}
	e.Level, _ = raw["level"].(string)
	e.Message, _ = raw["msg"].(string)
	e.Component, _ = raw["component"].(string)
	for k, v := range raw {
		switch k {
		case "time", "level", "msg", "component":
		default:
			e.Attrs[k] = v
		}
	}
	return e, nil
}

// FilterEntries returns the entries matching f.
func FilterEntries(entries []Entry, f Filter) []Entry {
	if f == (Filter{}) {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f Filter) matches(e Entry) bool {
	if f.Level != "" {
		want, ok1 := levelOrder[strings.ToUpper(f.Level)]
		got, ok2 := levelOrder[e.Level]
		if ok1 && ok2 && got < want {
			return false
		}
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Time.After(f.Until) {
		return false
	}
	if f.Component != "" && e.Component != f.Component {
		return false
	}
	return f.Contains == "" || strings.Contains(e.Message, f.Contains)
}

// ExportFormats lists the formats ExportEntries accepts.
func ExportFormats() []string { return []string{"text", "json", "csv"} }

// ExportEntries writes entries to w as "text", "json" or "csv".
func ExportEntries(w io.Writer, entries []Entry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text", "":
		return exportText(w, entries)
	case "csv":
		return exportCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format %q (supported: %s)", format, strings.Join(ExportFormats(), ", "))
	}
}

// exportText writes "[time] LEVEL component: msg {attrs}" lines.
func exportText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		var b strings.Builder
		b.WriteString("[")
		b.WriteString(e.Time.Format("2006-01-02 15:04:05.000"))
		b.WriteString("] ")
		b.WriteString(e.Level)
		b.WriteString(" ")
		if e.Component != "" {
			b.WriteString(e.Component)
			b.WriteString(": ")
		}
		b.WriteString(e.Message)
		if len(e.Attrs) > 0 {
			attrs, _ := json.Marshal(e.Attrs)
			b.WriteString(" ")
			b.Write(attrs)
		}
		b.WriteString("\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("write text entry: %w", err)
		}
	}
	return nil
}

func exportCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "level", "component", "msg", "attrs"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, e := range entries {
		attrs := ""
		if len(e.Attrs) > 0 {
			if b, err := json.Marshal(e.Attrs); err == nil {
				attrs = string(b)
			}
		}
		record := []string{e.Time.Format(time.RFC3339Nano), e.Level, e.Component, e.Message, attrs}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
