package buffer

import "sync"

// DefaultScratchSize is the capacity of arena buffers when none is given.
const DefaultScratchSize = 1024

// Purpose names a scratch slot. Each render stage owns one slot so stages
// never clobber each other's output.
type Purpose uint8

const (
	// PurposeRaw holds a value rendered without style or width handling.
	PurposeRaw Purpose = iota
	// PurposeTrim holds the trimmed, normalized form of PurposeRaw.
	PurposeTrim
	// PurposeLine holds a composed line before it is handed to a channel.
	PurposeLine
	// PurposeReport holds error reports and their fallback prefixes.
	PurposeReport

	numPurposes
)

func (p Purpose) String() string {
	switch p {
	case PurposeRaw:
		return "raw"
	case PurposeTrim:
		return "trim"
	case PurposeLine:
		return "line"
	case PurposeReport:
		return "report"
	default:
		return "unknown"
	}
}

// Arena is a set of scratch buffers keyed by Purpose. Scratch clears a slot
// before returning it; the previous content stays readable through Peek
// until then, which keeps the last render available for diagnostics.
//
// An Arena belongs to one goroutine at a time.
type Arena struct {
	size  int
	slots [numPurposes]*Raw
}

// NewArena returns an arena whose buffers have the given capacity.
func NewArena(size int) *Arena {
	if size < MinCapacity {
		size = DefaultScratchSize
	}
	return &Arena{size: size}
}

// Scratch returns the cleared buffer for p.
func (a *Arena) Scratch(p Purpose) *Raw {
	b := a.slot(p)
	b.Reset()
	return b
}

// Peek returns the buffer for p without clearing it.
func (a *Arena) Peek(p Purpose) *Raw {
	return a.slot(p)
}

// Size returns the capacity of each scratch buffer.
func (a *Arena) Size() int { return a.size }

func (a *Arena) slot(p Purpose) *Raw {
	if p >= numPurposes {
		p = PurposeRaw
	}
	if a.slots[p] == nil {
		a.slots[p] = New(a.size)
	}
	return a.slots[p]
}

// ArenaPool hands out arenas to goroutines that render concurrently.
type ArenaPool struct {
	size int
	pool sync.Pool
}

// NewArenaPool returns a pool of arenas with the given buffer capacity.
func NewArenaPool(size int) *ArenaPool {
	if size < MinCapacity {
		size = DefaultScratchSize
	}
	p := &ArenaPool{size: size}
	p.pool.New = func() any { return NewArena(p.size) }
	return p
}

// Get borrows an arena.
func (p *ArenaPool) Get() *Arena {
	return p.pool.Get().(*Arena)
}

// Put returns an arena to the pool.
func (p *ArenaPool) Put(a *Arena) {
	if a == nil || a.size != p.size {
		return
	}
	p.pool.Put(a)
}
