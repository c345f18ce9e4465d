package channel

import "sync/atomic"

// Counters are the process-wide outcome counts for one sink kind.
type Counters struct {
	Kind      Selector
	Written   uint64
	Contended uint64
	Failed    uint64
}

type kindCounters struct {
	written   atomic.Uint64
	contended atomic.Uint64
	failed    atomic.Uint64
}

var counters [4]kindCounters

func countersFor(s Selector) *kindCounters {
	return &counters[s.Kind()>>5&0x3]
}

func record(s Selector, o Outcome) {
	c := countersFor(s)
	switch o {
	case Ok:
		c.written.Add(1)
	case Contended:
		c.contended.Add(1)
	case Failed:
		c.failed.Add(1)
	}
}

// Stats returns the counters for every sink kind, in selector order.
func Stats() []Counters {
	kinds := [...]Selector{Stdout, Stderr, File, Buffer}
	out := make([]Counters, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, StatsFor(k))
	}
	return out
}

// StatsFor returns the counters for the kind of s.
func StatsFor(s Selector) Counters {
	c := countersFor(s)
	return Counters{
		Kind:      s.Kind(),
		Written:   c.written.Load(),
		Contended: c.contended.Load(),
		Failed:    c.failed.Load(),
	}
}

// ResetStats zeroes every counter.
func ResetStats() {
	for i := range counters {
		counters[i].written.Store(0)
		counters[i].contended.Store(0)
		counters[i].failed.Store(0)
	}
}
