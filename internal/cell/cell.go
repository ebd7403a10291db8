// Package cell encodes and decodes the cell headers stored inside a heap arena.
//
// Every cell is addressed by its claim point c, the offset of its one-byte
// allocation flag. Header layout relative to c (little-endian):
//
//	Offset   Size  Description
//	c-4      4     Size: bytes after the flag owned by the cell.
//	c        1     Flag: 1 allocated, 0 free.
//	c+1      4     Prev: distance to the next-lower free cell, 0 if none (free cells only).
//	c+5      4     Next: distance to the next-higher free cell, 0 if none (free cells only).
//
// Prev and Next overlap the payload of an allocated cell. They are only read
// while the cell is free.
//
// The arena itself starts with a 4-byte head offset: the claim point of the
// lowest free cell, or 0 when nothing is free.
//
// Functions in this package trust their arguments: c must be a valid claim
// point and the slice long enough. Out-of-range access panics like any slice
// index.
package cell

import "github.com/joshuapare/cellheap/internal/buf"

const (
	// HeadSize is the width of the arena's head offset.
	HeadSize = 4

	// SizeFieldLen is the width of the size field preceding the flag.
	SizeFieldLen = 4

	// FlagLen is the width of the allocation flag.
	FlagLen = 1

	// LinkLen is the width of the prev and next fields together.
	LinkLen = 8

	// Overhead is what a cell spends outside of its size: size field and flag.
	Overhead = SizeFieldLen + FlagLen

	// MinPayload is the smallest size a cell may have. A freed cell must be
	// able to hold its link fields.
	MinPayload = LinkLen

	// MinCellSpan is the smallest number of bytes a standalone cell occupies.
	// It doubles as the split threshold and the merge threshold.
	MinCellSpan = Overhead + MinPayload

	// FirstClaim is the claim point of the cell formatted at setup.
	FirstClaim = HeadSize + SizeFieldLen

	// Allocated and Free are the two flag values.
	Allocated byte = 1
	Free      byte = 0
)

const (
	prevOffset = FlagLen
	nextOffset = FlagLen + 4
)

// Header is a decoded cell header.
type Header struct {
	Claim     uint32 // Offset of the flag byte
	Size      uint32
	Allocated bool
	Prev      uint32 // Meaningful only when free
	Next      uint32 // Meaningful only when free
}

// Head returns the arena's head offset.
func Head(b []byte) uint32 {
	return buf.ReadU32LE(b, 0)
}

// SetHead stores the arena's head offset.
func SetHead(b []byte, c uint32) {
	buf.PutU32LE(b, 0, c)
}

// Size returns the size field of the cell at c.
func Size(b []byte, c uint32) uint32 {
	return buf.ReadU32LE(b, int(c)-SizeFieldLen)
}

// SetSize stores the size field of the cell at c.
func SetSize(b []byte, c, size uint32) {
	buf.PutU32LE(b, int(c)-SizeFieldLen, size)
}

// IsAllocated reports whether the flag byte at c marks the cell allocated.
func IsAllocated(b []byte, c uint32) bool {
	return b[c] == Allocated
}

// SetAllocated writes the flag byte at c.
func SetAllocated(b []byte, c uint32, allocated bool) {
	if allocated {
		b[c] = Allocated
	} else {
		b[c] = Free
	}
}

// Prev returns the distance to the next-lower free cell.
func Prev(b []byte, c uint32) uint32 {
	return buf.ReadU32LE(b, int(c)+prevOffset)
}

// SetPrev stores the distance to the next-lower free cell.
func SetPrev(b []byte, c, d uint32) {
	buf.PutU32LE(b, int(c)+prevOffset, d)
}

// Next returns the distance to the next-higher free cell.
func Next(b []byte, c uint32) uint32 {
	return buf.ReadU32LE(b, int(c)+nextOffset)
}

// SetNext stores the distance to the next-higher free cell.
func SetNext(b []byte, c, d uint32) {
	buf.PutU32LE(b, int(c)+nextOffset, d)
}

// Format writes a complete header at c.
func Format(b []byte, c, size uint32, allocated bool, prev, next uint32) {
	SetSize(b, c, size)
	SetAllocated(b, c, allocated)
	SetPrev(b, c, prev)
	SetNext(b, c, next)
}

// Decode reads the header at c. Prev and Next are zeroed for allocated cells,
// whose link bytes belong to the payload.
func Decode(b []byte, c uint32) Header {
	h := Header{
		Claim:     c,
		Size:      Size(b, c),
		Allocated: IsAllocated(b, c),
	}
	if !h.Allocated {
		h.Prev, h.Next = Prev(b, c), Next(b, c)
	}
	return h
}

// Start returns the offset of the first byte of the cell at c (its size field).
func Start(c uint32) uint32 {
	return c - SizeFieldLen
}

// End returns the offset of the last byte of a cell at c of the given size.
func End(c, size uint32) uint32 {
	return c + size
}

// Following returns the claim point of the cell that starts right after the
// cell at c.
func Following(c, size uint32) uint32 {
	return c + size + Overhead
}
