package heap

import (
	"github.com/joshuapare/cellheap/internal/buf"
	"github.com/joshuapare/cellheap/internal/cell"
)

const headSize = cell.HeadSize

// Walk calls fn for every cell in address order until fn returns false.
// A cell that runs past the arena is treated as corruption.
func (h *Heap) Walk(fn func(CellInfo) bool) {
	if err := h.walk(fn); err != nil {
		h.corrupt("%v", err)
	}
}

func (h *Heap) walk(fn func(CellInfo) bool) error {
	a := h.arena
	n := uint32(len(a))
	c := uint32(cell.FirstClaim)
	for c < n {
		size := cell.Size(a, c)
		end, ok := buf.AddU32(c, size)
		if !ok || end >= n {
			return invariantf("cell %d of size %d runs past arena end %d", c, size, n)
		}
		ci := CellInfo{
			Claim:     c,
			Start:     cell.Start(c),
			Size:      size,
			Allocated: cell.IsAllocated(a, c),
		}
		if !fn(ci) {
			return nil
		}
		if end == n-1 {
			return nil
		}
		if end+cell.Overhead >= n {
			return invariantf("%d trailing bytes after cell %d do not form a cell", n-1-end, c)
		}
		c = cell.Following(c, size)
	}
	return invariantf("walk left the arena at %d", c)
}

// Verify checks the structural invariants of the arena:
//
//   - cells tile the arena exactly, from the head offset to the last byte
//   - every flag is 0 or 1 and every cell holds at least MinPayload bytes
//   - the free list visits exactly the free cells, in increasing address
//     order, with matching prev and next distances
//   - no two free cells are adjacent
//
// It returns an *InvariantError describing the first violation found.
func (h *Heap) Verify() error {
	a := h.arena
	var (
		free     []uint32
		lastFree bool
		bad      error
	)
	err := h.walk(func(ci CellInfo) bool {
		if f := a[ci.Claim]; f != cell.Allocated && f != cell.Free {
			bad = invariantf("cell %d has flag %d", ci.Claim, f)
			return false
		}
		if ci.Size < cell.MinPayload {
			bad = invariantf("cell %d has size %d below %d", ci.Claim, ci.Size, cell.MinPayload)
			return false
		}
		if !ci.Allocated {
			if lastFree {
				bad = invariantf("free cells %d and %d are adjacent", free[len(free)-1], ci.Claim)
				return false
			}
			free = append(free, ci.Claim)
		}
		lastFree = !ci.Allocated
		return true
	})
	if err != nil {
		return err
	}
	if bad != nil {
		return bad
	}

	c := cell.Head(a)
	if len(free) == 0 {
		if c != 0 {
			return invariantf("head is %d but no cell is free", c)
		}
		return nil
	}
	if c == 0 {
		return invariantf("head is 0 but %d cells are free", len(free))
	}
	for i, want := range free {
		if c != want {
			return invariantf("free list entry %d is %d, want %d", i, c, want)
		}
		hd := cell.Decode(a, c)
		if i == 0 && hd.Prev != 0 {
			return invariantf("head cell %d has prev distance %d", c, hd.Prev)
		}
		d := hd.Next
		if i == len(free)-1 {
			if d != 0 {
				return invariantf("last free cell %d has next distance %d", c, d)
			}
			break
		}
		if d == 0 {
			return invariantf("free list ends at %d with %d cells unvisited", c, len(free)-1-i)
		}
		n, ok := buf.AddU32(c, d)
		if !ok || int(n)+cell.LinkLen >= len(a) {
			return invariantf("free cell %d links past arena", c)
		}
		if p := cell.Decode(a, n).Prev; p != d {
			return invariantf("free cell %d prev distance %d, want %d", n, p, d)
		}
		c = n
	}
	return nil
}
