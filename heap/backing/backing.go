// Package backing obtains the byte region a heap arena lives in.
//
// A Region is either an ordinary Go slice or, where supported, an anonymous
// private memory mapping. Mapped regions are page aligned, so alignment of
// heap pointers carries over to absolute addresses, and they live outside
// the Go heap.
package backing

import (
	"errors"
	"fmt"
)

// ErrMapUnsupported indicates that anonymous mappings are not available on
// this platform.
var ErrMapUnsupported = errors.New("backing: anonymous mapping unsupported")

// Options configures Acquire. A nil *Options allocates a Go slice.
type Options struct {
	// Mapped requests an anonymous private mapping instead of a Go slice.
	Mapped bool
}

// Region is a fixed block of memory for one arena.
type Region struct {
	data    []byte
	mapped  bool
	release func([]byte) error
}

// Acquire returns a zeroed region of size bytes.
func Acquire(size int, opts *Options) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("backing: invalid size %d", size)
	}
	if opts == nil || !opts.Mapped {
		return &Region{data: make([]byte, size)}, nil
	}

	data, err := mapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("backing: map %d bytes: %w", size, err)
	}
	return &Region{data: data, mapped: true, release: unmap}, nil
}

// Bytes returns the region's memory. It must not be used after Release.
func (r *Region) Bytes() []byte {
	return r.data
}

// Mapped reports whether the region is a memory mapping.
func (r *Region) Mapped() bool {
	return r.mapped
}

// Release returns the memory. Calling it twice is a no-op.
func (r *Region) Release() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if r.release == nil {
		return nil
	}
	return r.release(data)
}
