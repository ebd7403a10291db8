package cell

import "github.com/joshuapare/cellheap/internal/buf"

// IsPowerOfTwo reports whether a is a non-zero power of two.
func IsPowerOfTwo(a uint32) bool {
	return a != 0 && a&(a-1) == 0
}

// Padding returns the number of zero bytes to place after the flag at c so
// that the payload offset c+1+padding is a multiple of align. align must be a
// power of two.
//
// Example:
//
//	Padding(8, 8)  = 7   // payload at 16
//	Padding(15, 8) = 0   // payload at 16
//	Padding(9, 1)  = 0
func Padding(c, align uint32) uint32 {
	mask := align - 1
	return (align - (c+FlagLen)&mask) & mask
}

// PayloadSpan returns the size a cell needs to carry n payload bytes after
// padding, never less than MinPayload. ok is false when the sum overflows.
func PayloadSpan(n, padding uint32) (uint32, bool) {
	s, ok := buf.AddU32(n, padding)
	if !ok {
		return 0, false
	}
	return max(s, MinPayload), true
}
