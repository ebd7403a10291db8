package heap

import (
	"fmt"

	"github.com/joshuapare/cellheap/internal/buf"
	"github.com/joshuapare/cellheap/internal/cell"
)

// Alloc returns a payload of at least size bytes whose offset is a multiple
// of align, using the first free cell that fits.
func (h *Heap) Alloc(size, align uint32) (Ptr, error) {
	h.stats.AllocCalls++
	if err := h.checkRequest(size, align); err != nil {
		return 0, err
	}

	a := h.arena
	for c := cell.Head(a); c != 0; {
		csize := h.checkedSize(c)
		pad := cell.Padding(c, align)
		if need, ok := cell.PayloadSpan(size, pad); ok && csize >= need {
			p := h.claim(c, need, pad)
			h.track(p, size)
			h.stats.BytesAllocated += uint64(size)
			return p, nil
		}

		d := cell.Next(a, c)
		if d == 0 {
			break
		}
		c = h.forward(c, d)
	}

	h.stats.OutOfMemory++
	h.log.Debug("alloc failed", "size", size, "align", align)
	return 0, fmt.Errorf("alloc %d/%d: %w", size, align, ErrOutOfMemory)
}

// AllocZeroed is Alloc with every payload byte set to zero.
func (h *Heap) AllocZeroed(size, align uint32) (Ptr, error) {
	p, err := h.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	buf.Zero(h.arena, int(p), int(size))
	return p, nil
}

// Free returns the allocation at p to the free list and merges it with any
// adjacent free cells. A p that is not a live allocation yields
// ErrBadPointer; with Options.Untracked such a p is undefined behavior.
func (h *Heap) Free(p Ptr) error {
	h.stats.FreeCalls++
	c, err := h.claimPoint(p)
	if err != nil {
		return err
	}
	h.untrack(p)
	h.release(c)
	return nil
}

// Realloc resizes the allocation at p.
//
// A request that fits the current cell returns p unchanged; cells never
// shrink. Otherwise the free cell directly after p's cell is carved to grow
// in place. Failing that, a new cell is allocated at align, the first
// min(oldSize, newSize) bytes are copied and p is freed. Allocation happens
// before the free, so on error p is still valid. p is validated as in Free.
func (h *Heap) Realloc(p Ptr, oldSize, align, newSize uint32) (Ptr, error) {
	h.stats.ReallocCalls++
	if err := h.checkRequest(newSize, align); err != nil {
		return 0, err
	}
	c, err := h.claimPoint(p)
	if err != nil {
		return 0, err
	}

	size := cell.Size(h.arena, c)
	usable := cell.End(c, size) + 1 - uint32(p)
	if newSize <= usable {
		h.stats.ReallocKept++
		h.track(p, newSize)
		return p, nil
	}
	if h.growInPlace(c, size, newSize-usable) {
		h.stats.ReallocInPlace++
		h.track(p, newSize)
		return p, nil
	}

	np, err := h.Alloc(newSize, align)
	if err != nil {
		return 0, err
	}
	n := min(oldSize, newSize, usable)
	copy(h.arena[np:uint32(np)+n], h.arena[p:uint32(p)+n])
	h.untrack(p)
	h.release(c)
	h.stats.ReallocMoved++
	h.log.Debug("realloc moved", "from", uint32(p), "to", uint32(np), "size", newSize)
	return np, nil
}

// growInPlace extends the allocated cell c by at least missing bytes using
// the free cell that immediately follows it.
func (h *Heap) growInPlace(c, size, missing uint32) bool {
	a := h.arena
	n := cell.Following(c, size)
	if int(n) >= len(a) || cell.IsAllocated(a, n) {
		return false
	}
	nsize := h.checkedSize(n)
	if nsize+cell.Overhead < missing {
		return false
	}

	// Absorbing n also absorbs its header, so only the rest comes from its size.
	front := missing - min(missing, cell.Overhead)
	h.carve(n, front)
	cell.SetSize(a, c, size+cell.Overhead+cell.Size(a, n))
	return true
}

func (h *Heap) checkRequest(size, align uint32) error {
	if !cell.IsPowerOfTwo(align) {
		return fmt.Errorf("%w: %d", ErrBadAlign, align)
	}
	if size > h.capacity {
		return fmt.Errorf("%w: %d > %d", ErrTooLarge, size, h.capacity)
	}
	return nil
}

func (h *Heap) track(p Ptr, size uint32) {
	if h.live != nil {
		h.live[p] = size
	}
}

func (h *Heap) untrack(p Ptr) {
	if h.live != nil {
		delete(h.live, p)
	}
}
