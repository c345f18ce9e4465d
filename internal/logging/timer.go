package logging

import (
	"io"
	"strconv"
	"strings"
	"time"
)

// Timer records labelled laps from a start time.
type Timer struct {
	start time.Time
	laps  []Lap
	now   func() time.Time
}

// Lap is one recorded elapsed time.
type Lap struct {
	Label   string
	Elapsed time.Duration
}

// NewTimer returns a started timer.
func NewTimer() *Timer {
	t := &Timer{now: time.Now}
	t.Start()
	return t
}

// Start restarts the clock. Recorded laps are kept.
func (t *Timer) Start() *Timer {
	t.start = t.now()
	return t
}

// Elapsed returns the time since Start.
func (t *Timer) Elapsed() time.Duration { return t.now().Sub(t.start) }

// Lap records the elapsed time under label. An empty label means
// "Elapsed time: ".
func (t *Timer) Lap(label string) *Timer {
	if label == "" {
		label = "Elapsed time: "
	}
	t.laps = append(t.laps, Lap{Label: label, Elapsed: t.Elapsed()})
	return t
}

// Laps returns the recorded laps.
func (t *Timer) Laps() []Lap { return t.laps }

// WriteTo writes one "label duration" line per lap and clears them.
func (t *Timer) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, lap := range t.laps {
		b.WriteString(lap.Label)
		b.WriteString(FormatDuration(lap.Elapsed))
		b.WriteByte('\n')
	}
	t.laps = t.laps[:0]
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// FormatDuration prints d as colon-separated units from days down to
// microseconds, starting at the first non-zero unit: 90s is "1m:30s:0ms:0us".
// Durations under a microsecond print as "0us".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	units := [...]struct {
		size time.Duration
		name string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
		{time.Millisecond, "ms"},
		{time.Microsecond, "us"},
	}
	var b strings.Builder
	started := false
	for i, u := range units {
		n := d / u.size
		d -= n * u.size
		if n == 0 && !started {
			continue
		}
		started = true
		b.WriteString(strconv.FormatInt(int64(n), 10))
		b.WriteString(u.name)
		if i < len(units)-1 {
			b.WriteByte(':')
		}
	}
	if !started {
		return "0us"
	}
	return b.String()
}
