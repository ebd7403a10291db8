//go:build linux || darwin || freebsd

package backing

import (
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestAcquireMapped(t *testing.T) {
	size := 3*os.Getpagesize() + 17
	r, err := Acquire(size, &Options{Mapped: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Release() })

	require.True(t, r.Mapped())
	data := r.Bytes()
	require.Len(t, data, size)

	base := uintptr(unsafe.Pointer(&data[0]))
	require.Zero(t, base%uintptr(os.Getpagesize()), "mapping must be page aligned")

	data[0], data[size-1] = 0xAA, 0xBB
	require.Equal(t, byte(0xAA), data[0])
	require.Equal(t, byte(0xBB), data[size-1])
	require.Zero(t, data[size/2])

	require.NoError(t, r.Release())
	require.Nil(t, r.Bytes())
}
