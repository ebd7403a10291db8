package heap

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/joshuapare/cellheap/internal/buf"
	"github.com/joshuapare/cellheap/internal/cell"
	"github.com/joshuapare/cellheap/internal/logger"
)

const (
	cellOverhead = cell.Overhead

	// MinArenaSize is the smallest arena that can hold the head offset and one cell.
	MinArenaSize = cell.HeadSize + cell.MinCellSpan

	// MaxArenaSize is the largest arena addressable with 32-bit offsets.
	MaxArenaSize = math.MaxUint32
)

// Heap is a first-fit free-list allocator over one fixed arena.
//
// The arena holds all allocator metadata: a head offset followed by a tiling
// of cells, each with a small header. Free cells are chained in address order
// through their headers. A Heap has a single owner and is not safe for
// concurrent use; wrap it in Locked when sharing.
type Heap struct {
	arena    []byte
	capacity uint32 // size of the single cell formatted at setup

	// Largest padding handed out since setup; bounds the backward scan.
	maxPad uint32

	live map[Ptr]uint32 // payload -> requested size, nil when Untracked

	log   *slog.Logger
	stats Stats
}

// New formats arena as an empty heap and returns it. The heap takes
// ownership of arena; callers must not write to it except through pointers
// the heap hands out.
func New(arena []byte, opts *Options) (*Heap, error) {
	if opts == nil {
		opts = &Options{}
	}
	n := len(arena)
	if n < MinArenaSize || uint64(n) > MaxArenaSize {
		return nil, fmt.Errorf("%w: %d bytes (want %d..%d)", ErrArenaSize, n, MinArenaSize, uint64(MaxArenaSize))
	}

	h := &Heap{
		arena: arena,
		log:   opts.Logger,
	}
	if h.log == nil {
		h.log = logger.L
	}
	if !opts.Untracked {
		h.live = make(map[Ptr]uint32)
	}
	h.Reset()
	return h, nil
}

// Reset formats the whole arena as one free cell. Allocations made before
// Reset are orphaned and must not be used.
func (h *Heap) Reset() {
	a := h.arena
	h.capacity = uint32(len(a)) - cell.HeadSize - cell.Overhead
	h.maxPad = 0
	if h.live != nil {
		clear(h.live)
	}

	cell.Format(a, cell.FirstClaim, h.capacity, false, 0, 0)
	cell.SetHead(a, cell.FirstClaim)

	h.log.Debug("heap reset", "arena", len(a), "capacity", h.capacity)
}

// Len returns the arena size in bytes.
func (h *Heap) Len() int {
	return len(h.arena)
}

// Capacity returns the largest payload the heap could ever provide: the size
// of the free cell formatted at setup.
func (h *Heap) Capacity() uint32 {
	return h.capacity
}

// Bytes returns the n bytes starting at p, or nil when the range leaves the
// arena. The slice aliases the arena and is capped at n.
func (h *Heap) Bytes(p Ptr, n uint32) []byte {
	b, ok := buf.Slice(h.arena, int(p), int(n))
	if !ok {
		return nil
	}
	return b[:n:n]
}

// Stats returns the operation counters accumulated since New.
func (h *Heap) Stats() Stats {
	return h.stats
}

// corrupt logs and panics. Internal inconsistency is never repaired.
func (h *Heap) corrupt(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	h.log.Error("heap corruption", "detail", msg)
	panic(fmt.Errorf("%w: %s", ErrCorrupt, msg))
}

// checkedSize returns the size of the cell at c, panicking when the cell
// would run past the arena.
func (h *Heap) checkedSize(c uint32) uint32 {
	size := cell.Size(h.arena, c)
	end, ok := buf.AddU32(c, size)
	if !ok || int(end) >= len(h.arena) {
		h.corrupt("cell %d of size %d overruns arena of %d bytes", c, size, len(h.arena))
	}
	return size
}

// forward returns c+d, panicking when the link leaves the arena.
func (h *Heap) forward(c, d uint32) uint32 {
	n, ok := buf.AddU32(c, d)
	if !ok || int(n) >= len(h.arena) {
		h.corrupt("link %d+%d leaves arena", c, d)
	}
	return n
}

// backward returns c-d, panicking when the link leaves the arena.
func (h *Heap) backward(c, d uint32) uint32 {
	if d > c-cell.FirstClaim {
		h.corrupt("link %d-%d leaves arena", c, d)
	}
	return c - d
}
