package heap

import "github.com/joshuapare/cellheap/internal/cell"

// The free list is threaded through free cell headers in strictly increasing
// address order. Links are relative distances, the root is the arena's head
// offset, and 0 terminates in either direction.

// locatePredecessor returns the free cell with the greatest claim point below
// addr, or 0 when the list is empty or addr precedes every free cell.
func (h *Heap) locatePredecessor(addr uint32) uint32 {
	a := h.arena
	c := cell.Head(a)
	if c == 0 || c >= addr {
		return 0
	}
	for {
		d := cell.Next(a, c)
		if d == 0 {
			return c
		}
		n := h.forward(c, d)
		if n >= addr {
			return c
		}
		c = n
	}
}

// link makes lo and hi list neighbours.
func (h *Heap) link(lo, hi uint32) {
	d := hi - lo
	cell.SetNext(h.arena, lo, d)
	cell.SetPrev(h.arena, hi, d)
}

// insertAfter splices c in directly after the free cell pred.
func (h *Heap) insertAfter(pred, c uint32) {
	a := h.arena
	if d := cell.Next(a, pred); d != 0 {
		h.link(c, h.forward(pred, d))
	} else {
		cell.SetNext(a, c, 0)
	}
	h.link(pred, c)
}

// insertAsHead makes c the lowest free cell.
func (h *Heap) insertAsHead(c uint32) {
	a := h.arena
	cell.SetPrev(a, c, 0)
	if head := cell.Head(a); head != 0 {
		h.link(c, head)
	} else {
		cell.SetNext(a, c, 0)
	}
	cell.SetHead(a, c)
}

// insert places the free cell c at its address-ordered position.
func (h *Heap) insert(c uint32) {
	if pred := h.locatePredecessor(c); pred != 0 {
		h.insertAfter(pred, c)
	} else {
		h.insertAsHead(c)
	}
}

// remove unlinks c. Its own link fields are left stale.
func (h *Heap) remove(c uint32) {
	a := h.arena
	p, n := cell.Prev(a, c), cell.Next(a, c)
	switch {
	case p != 0 && n != 0:
		h.link(h.backward(c, p), h.forward(c, n))
	case p != 0:
		cell.SetNext(a, h.backward(c, p), 0)
	case n != 0:
		succ := h.forward(c, n)
		cell.SetPrev(a, succ, 0)
		cell.SetHead(a, succ)
	default:
		cell.SetHead(a, 0)
	}
}

// replace links rem between the free cells prev and next, either of which
// may be 0. It is used when rem takes over a removed cell's list position.
func (h *Heap) replace(prev, next, rem uint32) {
	a := h.arena
	if prev != 0 {
		h.link(prev, rem)
	} else {
		cell.SetPrev(a, rem, 0)
		cell.SetHead(a, rem)
	}
	if next != 0 {
		h.link(rem, next)
	} else {
		cell.SetNext(a, rem, 0)
	}
}
