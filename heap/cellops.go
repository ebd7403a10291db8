package heap

import (
	"fmt"

	"github.com/joshuapare/cellheap/internal/buf"
	"github.com/joshuapare/cellheap/internal/cell"
)

// carve takes the first need bytes of the free cell c out of the free list.
//
// When at least MinCellSpan bytes would be left over, c shrinks to need and a
// new free cell is formatted in the remainder, taking c's place in the list.
// Otherwise the whole cell is removed and keeps its size. need may be below
// MinPayload only when the caller absorbs c into a neighbour.
func (h *Heap) carve(c, need uint32) {
	a := h.arena
	size := cell.Size(a, c)
	if size-need < cell.MinCellSpan {
		h.remove(c)
		return
	}

	// Read the links before anything is written: the remainder header may
	// overlap them when need is small.
	var prev, next uint32
	if d := cell.Prev(a, c); d != 0 {
		prev = h.backward(c, d)
	}
	if d := cell.Next(a, c); d != 0 {
		next = h.forward(c, d)
	}

	rem := cell.Following(c, need)
	cell.SetSize(a, c, need)
	cell.Format(a, rem, size-need-cell.Overhead, false, 0, 0)
	h.replace(prev, next, rem)
	h.stats.Splits++
}

// claim carves need bytes from the free cell c and marks it allocated. The
// padding bytes after the flag are zeroed so a backward scan from the payload
// stops at the flag.
func (h *Heap) claim(c, need, pad uint32) Ptr {
	h.carve(c, need)
	cell.SetAllocated(h.arena, c, true)
	if pad > 0 {
		buf.Zero(h.arena, int(c)+cell.FlagLen, int(pad))
		h.maxPad = max(h.maxPad, pad)
	}
	return Ptr(c + cell.FlagLen + pad)
}

// claimPoint recovers the claim point of the allocation at p by scanning
// backward for the flag byte.
func (h *Heap) claimPoint(p Ptr) (uint32, error) {
	a := h.arena
	off := uint32(p)
	if off <= cell.FirstClaim || int(off) >= len(a) {
		return 0, fmt.Errorf("%w: %d outside arena", ErrBadPointer, off)
	}
	if h.live != nil {
		if _, ok := h.live[p]; !ok {
			return 0, fmt.Errorf("%w: %d", ErrBadPointer, off)
		}
	}

	limit := min(off-cell.FirstClaim, h.maxPad+cell.FlagLen)
	for i := uint32(1); i <= limit; i++ {
		c := off - i
		if a[c] != cell.Allocated {
			continue
		}
		size := cell.Size(a, c)
		end, ok := buf.AddU32(c, size)
		if !ok || int(end) >= len(a) || end+1 < off {
			return 0, fmt.Errorf("%w: %d has no plausible header", ErrBadPointer, off)
		}
		return c, nil
	}
	return 0, fmt.Errorf("%w: %d has no allocation flag", ErrBadPointer, off)
}

// adjacent reports whether the free cells lo < hi are close enough to merge:
// the gap between lo's last byte and hi's first byte is below MinCellSpan.
// Overlap means corruption.
func (h *Heap) adjacent(lo, hi uint32) bool {
	last := cell.End(lo, h.checkedSize(lo))
	first := cell.Start(hi)
	if first <= last {
		h.corrupt("cell %d overlaps cell %d", lo, hi)
	}
	return first-last-1 < cell.MinCellSpan
}

// merge absorbs the free cell hi into its lower list neighbour lo.
func (h *Heap) merge(lo, hi uint32) {
	a := h.arena
	hiSize := h.checkedSize(hi)
	cell.SetSize(a, lo, cell.End(hi, hiSize)-lo)
	if d := cell.Next(a, hi); d != 0 {
		h.link(lo, h.forward(hi, d))
	} else {
		cell.SetNext(a, lo, 0)
	}
}

// coalesce merges c with adjacent free neighbours until none remain.
func (h *Heap) coalesce(c uint32) {
	a := h.arena
	for {
		if d := cell.Prev(a, c); d != 0 {
			if p := h.backward(c, d); h.adjacent(p, c) {
				h.merge(p, c)
				h.stats.CoalesceBackward++
				c = p
				continue
			}
		}
		if d := cell.Next(a, c); d != 0 {
			if n := h.forward(c, d); h.adjacent(c, n) {
				h.merge(c, n)
				h.stats.CoalesceForward++
				continue
			}
		}
		return
	}
}

// release marks the allocated cell c free, links it in and coalesces.
func (h *Heap) release(c uint32) {
	cell.SetAllocated(h.arena, c, false)
	h.insert(c)
	h.coalesce(c)
}
