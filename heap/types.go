package heap

import "log/slog"

// Ptr is an opaque handle to an allocation: the payload's offset from the
// start of the arena. The zero Ptr is never returned by a successful call.
type Ptr uint32

// Allocator defines the dynamic-memory operations a heap provides.
//
// Implementations:
//   - Heap: the free-list engine over a single arena
//   - Locked: mutex wrapper around any Allocator
type Allocator interface {
	// Alloc returns a payload of at least size bytes whose offset is a
	// multiple of align. align must be a power of two.
	Alloc(size, align uint32) (Ptr, error)

	// AllocZeroed is Alloc with the payload cleared.
	AllocZeroed(size, align uint32) (Ptr, error)

	// Realloc resizes the allocation at p, keeping its first
	// min(oldSize, newSize) bytes. The returned Ptr may equal p.
	// On failure p is left untouched.
	Realloc(p Ptr, oldSize, align, newSize uint32) (Ptr, error)

	// Free returns the allocation at p to the heap.
	Free(p Ptr) error
}

// Options configures a Heap. A nil *Options uses the defaults.
type Options struct {
	// Logger receives debug and error records. Defaults to logger.L.
	Logger *slog.Logger

	// Untracked drops the set of live pointers the heap keeps outside the
	// arena. Free and Realloc still reject pointers outside the arena or
	// without an allocation flag behind them, but passing any other pointer
	// that is not currently allocated is undefined behaviour: a stale
	// pointer can resolve to a newer allocation and release it.
	Untracked bool
}

// CellInfo describes one cell as seen by Walk.
type CellInfo struct {
	Claim     uint32 // Offset of the allocation flag
	Start     uint32 // Offset of the first header byte
	Size      uint32 // Bytes owned after the flag
	Allocated bool
}

// Span returns the total number of arena bytes the cell occupies.
func (ci CellInfo) Span() uint32 {
	return ci.Size + cellOverhead
}
