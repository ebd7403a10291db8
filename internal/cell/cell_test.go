package cell

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatDecodeFree(t *testing.T) {
	b := make([]byte, 64)
	Format(b, FirstClaim, 40, false, 3, 17)

	h := Decode(b, FirstClaim)
	require.Equal(t, Header{Claim: FirstClaim, Size: 40, Prev: 3, Next: 17}, h)
	require.False(t, IsAllocated(b, FirstClaim))
	require.Equal(t, byte(Free), b[FirstClaim])
}

func TestDecodeAllocatedHidesLinks(t *testing.T) {
	b := make([]byte, 64)
	Format(b, FirstClaim, 20, true, 9, 9)

	h := Decode(b, FirstClaim)
	require.True(t, h.Allocated)
	require.Zero(t, h.Prev)
	require.Zero(t, h.Next)
	require.Equal(t, byte(Allocated), b[FirstClaim])
}

func TestFieldsDoNotOverlap(t *testing.T) {
	b := make([]byte, 32)
	c := uint32(FirstClaim)
	SetSize(b, c, 0xffffffff)
	SetPrev(b, c, 0x11111111)
	SetNext(b, c, 0x22222222)
	SetAllocated(b, c, true)

	require.Equal(t, uint32(0xffffffff), Size(b, c))
	require.Equal(t, uint32(0x11111111), Prev(b, c))
	require.Equal(t, uint32(0x22222222), Next(b, c))
	require.True(t, IsAllocated(b, c))
	require.Zero(t, Head(b), "head bytes must be untouched")
	require.Zero(t, b[c+MinPayload+1], "nothing written past the link fields")
}

func TestHead(t *testing.T) {
	b := make([]byte, 16)
	SetHead(b, 0x1234)
	require.Equal(t, uint32(0x1234), Head(b))
}

func TestGeometry(t *testing.T) {
	require.Equal(t, 5, Overhead)
	require.Equal(t, 13, MinCellSpan)
	require.Equal(t, uint32(4), Start(8))
	require.Equal(t, uint32(48), End(8, 40))
	require.Equal(t, uint32(53), Following(8, 40))
	require.Equal(t, Start(Following(8, 40)), End(8, 40)+1, "cells tile with no gap")
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, a := range []uint32{1, 2, 4, 8, 4096, 1 << 31} {
		require.True(t, IsPowerOfTwo(a), "%d", a)
	}
	for _, a := range []uint32{0, 3, 6, 12, 4095, 1<<31 + 1} {
		require.False(t, IsPowerOfTwo(a), "%d", a)
	}
}

func TestPadding(t *testing.T) {
	tests := []struct {
		c, align, want uint32
	}{
		{8, 1, 0},
		{8, 2, 1},
		{8, 4, 3},
		{8, 8, 7},
		{15, 8, 0},
		{15, 16, 0},
		{16, 16, 15},
		{100, 64, 27},
	}
	for _, tt := range tests {
		got := Padding(tt.c, tt.align)
		require.Equal(t, tt.want, got, "Padding(%d, %d)", tt.c, tt.align)
		require.Zero(t, (tt.c+FlagLen+got)%tt.align)
	}
}

func TestPayloadSpan(t *testing.T) {
	tests := []struct {
		n, pad, want uint32
	}{
		{0, 0, MinPayload},
		{3, 2, MinPayload},
		{100, 7, 107},
	}
	for _, tt := range tests {
		got, ok := PayloadSpan(tt.n, tt.pad)
		require.True(t, ok)
		require.Equal(t, tt.want, got, "PayloadSpan(%d, %d)", tt.n, tt.pad)
	}

	_, ok := PayloadSpan(math.MaxUint32, 1)
	require.False(t, ok, "overflow must be reported")
}
