package heap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/internal/cell"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestHeap creates a heap over a fresh arena of n bytes.
func newTestHeap(t testing.TB, n int, opts *Options) *Heap {
	t.Helper()
	h, err := New(make([]byte, n), opts)
	require.NoError(t, err)
	requireValid(t, h)
	return h
}

// requireValid fails the test when any structural invariant is broken.
func requireValid(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, h.Verify())
	requirePartition(t, h)
}

// requirePartition checks that the cells exactly cover the arena.
func requirePartition(t testing.TB, h *Heap) {
	t.Helper()
	total := uint64(cell.HeadSize)
	h.Walk(func(ci CellInfo) bool {
		total += uint64(ci.Span())
		return true
	})
	require.Equal(t, uint64(h.Len()), total, "cells must tile the arena")
}

// fill writes a recognizable pattern into the payload at p.
func fill(h *Heap, p Ptr, n uint32, seed byte) {
	b := h.Bytes(p, n)
	for i := range b {
		b[i] = seed + byte(i%251)
	}
}

// requirePattern checks a pattern written by fill.
func requirePattern(t testing.TB, h *Heap, p Ptr, n uint32, seed byte) {
	t.Helper()
	b := h.Bytes(p, n)
	require.NotNil(t, b)
	for i := range b {
		if b[i] != seed+byte(i%251) {
			require.Failf(t, "payload corrupted", "ptr %d offset %d: got %d want %d", p, i, b[i], seed+byte(i%251))
		}
	}
}

// requireCorruptPanic runs fn and requires it to panic with ErrCorrupt.
func requireCorruptPanic(t testing.TB, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error, got %T", r)
		require.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
	}()
	fn()
}

// freeCells returns the claim points on the free list in list order.
func freeCells(h *Heap) []uint32 {
	var out []uint32
	for c := cell.Head(h.arena); c != 0; {
		out = append(out, c)
		d := cell.Next(h.arena, c)
		if d == 0 {
			break
		}
		c += d
	}
	return out
}
