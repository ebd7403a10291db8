//go:build linux || darwin || freebsd

package backing

import (
	"golang.org/x/sys/unix"
)

// mapAnon maps size bytes of private, zero-filled memory.
func mapAnon(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func unmap(data []byte) error {
	return unix.Munmap(data)
}
