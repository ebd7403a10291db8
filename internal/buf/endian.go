// Package buf contains helpers for fixed-width field access inside arenas.
package buf

import "encoding/binary"

// PutU32LE writes v little-endian into b[off:off+4].
// Panics if the range is out of bounds, like any slice store.
func PutU32LE(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32LE reads a little-endian uint32 at b[off:off+4].
func ReadU32LE(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// Zero clears b[off:off+n].
func Zero(b []byte, off, n int) {
	clear(b[off : off+n])
}
