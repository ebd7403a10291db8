// Package heap provides a free-list memory allocator over a single fixed arena.
//
// # Overview
//
// A Heap manages one contiguous byte slice with no help from the operating
// system. All bookkeeping lives inside the arena: a 4-byte head offset at the
// start, followed by cells that tile the rest of it exactly. Each cell carries
// a size field and a one-byte allocation flag; free cells additionally hold
// relative distances to their free neighbours, forming an address-ordered,
// doubly linked free list.
//
// # Operations
//
//   - Alloc(size, align): first-fit search, splitting off the unused tail
//   - AllocZeroed(size, align): Alloc with a cleared payload
//   - Realloc(p, oldSize, align, newSize): keep, grow in place, or move
//   - Free(p): relink in address order and merge with adjacent free cells
//
// Pointers are arena offsets (Ptr). Use Bytes to view a payload.
//
// # Cell Layout
//
// The claim point of a cell is the offset of its flag byte:
//
//	[size:4][flag:1][padding:0..align-1][payload ...]
//
// Padding bytes are always zero, so the flag is the first byte equal to 1
// found scanning backward from the payload. That is how Free and Realloc
// recover the header from a Ptr.
//
// A remainder is split off only when it can form a cell of its own
// (cell.MinCellSpan, 13 bytes); smaller remainders stay with the allocation.
//
// # Alignment
//
// Padding is the distance from the byte after the flag to the next multiple
// of align, so every returned Ptr is a multiple of align. Absolute addresses
// are aligned too when the arena's base is; the backing package returns
// page-aligned arenas when mapped.
//
// # Errors
//
// ErrOutOfMemory is an ordinary result. Contract violations (bad alignment,
// oversize requests, freeing something that is not a live allocation) are
// reported as errors. Pointer validation is exact by default; with
// Options.Untracked, freeing or resizing a pointer that is not live is
// undefined behavior. Internal corruption panics with an error wrapping
// ErrCorrupt.
//
// # Usage Example
//
//	h, err := heap.New(make([]byte, 1<<20), nil)
//	if err != nil {
//	    return err
//	}
//
//	p, err := h.Alloc(256, 8)
//	if err != nil {
//	    return err
//	}
//	copy(h.Bytes(p, 256), payload)
//
//	p, err = h.Realloc(p, 256, 8, 1024)
//	...
//	err = h.Free(p)
//
// # Thread Safety
//
// Heap instances are not thread-safe and not reentrant. Wrap a heap with
// NewLocked to share it between goroutines.
//
// # Related Packages
//
//   - github.com/joshuapare/cellheap/heap/backing: obtains arena memory
//   - github.com/joshuapare/cellheap/internal/cell: header encoding
package heap
