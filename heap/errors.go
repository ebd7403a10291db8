package heap

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory indicates that no free cell can hold the request after
	// overhead and alignment. It is an ordinary result, not a fault.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrBadAlign indicates an alignment that is zero or not a power of two.
	ErrBadAlign = errors.New("heap: alignment must be a power of two")

	// ErrTooLarge indicates a size larger than the arena could ever provide.
	ErrTooLarge = errors.New("heap: size exceeds arena capacity")

	// ErrBadPointer indicates a pointer that is not a live allocation of this heap.
	ErrBadPointer = errors.New("heap: pointer is not a live allocation")

	// ErrArenaSize indicates an arena too small to hold one cell or too large
	// for 32-bit offsets.
	ErrArenaSize = errors.New("heap: arena size out of range")

	// ErrCorrupt indicates that the heap's own bookkeeping is inconsistent.
	ErrCorrupt = errors.New("heap: arena corrupt")
)

// InvariantError describes a broken structural invariant found by Verify.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "heap: invariant violated: " + e.Msg
}

// Unwrap lets errors.Is match InvariantError against ErrCorrupt.
func (e *InvariantError) Unwrap() error {
	return ErrCorrupt
}

func invariantf(format string, args ...any) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}
