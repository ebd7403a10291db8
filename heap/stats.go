package heap

// Stats counts heap operations since New. Reset does not clear it.
type Stats struct {
	AllocCalls       int    // Alloc and AllocZeroed calls, including Realloc fallbacks
	FreeCalls        int    // Free calls
	ReallocCalls     int    // Realloc calls
	OutOfMemory      int    // Allocations that found no fitting cell
	BytesAllocated   uint64 // Requested bytes over all successful allocations
	Splits           int    // Free cells split in two
	CoalesceForward  int    // Merges of a freed cell with its higher neighbour
	CoalesceBackward int    // Merges of a freed cell into its lower neighbour
	ReallocKept      int    // Reallocs satisfied by the current cell
	ReallocInPlace   int    // Reallocs grown into the following free cell
	ReallocMoved     int    // Reallocs that allocated, copied and freed
}

// Usage is a snapshot of how the arena is divided.
type Usage struct {
	Arena          int    // Arena size in bytes
	Cells          int    // All cells
	FreeCells      int    // Cells on the free list
	FreeBytes      uint64 // Sum of free cell sizes
	LargestFree    uint32 // Largest free cell size
	AllocatedCells int    // Cells in use
	AllocatedBytes uint64 // Sum of allocated cell sizes, padding included
	HeaderBytes    uint64 // Head offset plus per-cell overhead
}

// Fragmentation returns 1 - LargestFree/FreeBytes: 0 when all free space is
// one cell, approaching 1 as it splinters.
func (u Usage) Fragmentation() float64 {
	if u.FreeBytes == 0 {
		return 0
	}
	return 1 - float64(u.LargestFree)/float64(u.FreeBytes)
}

// Usage walks the arena and summarizes it.
func (h *Heap) Usage() Usage {
	u := Usage{Arena: len(h.arena), HeaderBytes: headSize}
	h.Walk(func(ci CellInfo) bool {
		u.Cells++
		u.HeaderBytes += cellOverhead
		if ci.Allocated {
			u.AllocatedCells++
			u.AllocatedBytes += uint64(ci.Size)
		} else {
			u.FreeCells++
			u.FreeBytes += uint64(ci.Size)
			u.LargestFree = max(u.LargestFree, ci.Size)
		}
		return true
	})
	return u
}
