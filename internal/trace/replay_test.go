package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cellheap/heap"
)

func newHeap(t *testing.T, n int) *heap.Heap {
	t.Helper()
	h, err := heap.New(make([]byte, n), nil)
	require.NoError(t, err)
	return h
}

func mustParse(t *testing.T, s string) []Op {
	t.Helper()
	ops, err := Parse(strings.NewReader(s))
	require.NoError(t, err)
	return ops
}

func TestReplay_Sample(t *testing.T) {
	h := newHeap(t, 1<<16)

	res, err := Replay(h, mustParse(t, sampleTrace), nil)
	require.NoError(t, err)
	require.Equal(t, Result{
		Ops:       6,
		Allocs:    2,
		Reallocs:  1,
		Frees:     2,
		Verifies:  1,
		PeakLive:  2,
		PeakBytes: 2064,
	}, res)
	require.NoError(t, h.Verify())
	require.Equal(t, 1, h.Usage().FreeCells)
}

func TestReplay_OutOfMemoryCounted(t *testing.T) {
	h := newHeap(t, 256)
	ops := mustParse(t, `
alloc big 4000 1
alloc a 100 1
realloc a 240
free a
`)

	_, err := Replay(h, ops, nil)
	require.Error(t, err, "size above capacity is a contract error, not OOM")
	require.ErrorIs(t, err, heap.ErrTooLarge)
	require.Contains(t, err.Error(), "line 2")

	h.Reset()
	res, err := Replay(h, ops[1:], nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.OutOfMemory)

	h.Reset()
	ops = mustParse(t, "alloc a 150 1\nalloc b 150 1\nfree a\n")
	res, err = Replay(h, ops, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.OutOfMemory)
	require.Equal(t, 1, res.Allocs)

	h.Reset()
	_, err = Replay(h, ops, &Options{FailOnOOM: true})
	require.ErrorIs(t, err, heap.ErrOutOfMemory)
}

func TestReplay_IDErrors(t *testing.T) {
	h := newHeap(t, 4096)

	_, err := Replay(h, mustParse(t, "free nope\n"), nil)
	require.ErrorIs(t, err, ErrUnknownID)

	_, err = Replay(h, mustParse(t, "realloc nope 8\n"), nil)
	require.ErrorIs(t, err, ErrUnknownID)

	h.Reset()
	_, err = Replay(h, mustParse(t, "alloc a 8 1\nalloc a 8 1\n"), nil)
	require.ErrorIs(t, err, ErrDuplicateID)
	require.Contains(t, err.Error(), "line 2")

	h.Reset()
	res, err := Replay(h, mustParse(t, "alloc a 8 1\nfree a\nalloc a 16 1\n"), nil)
	require.NoError(t, err, "ids may be reused after free")
	require.Equal(t, 1, res.Live)
}

func TestReplay_ContractErrors(t *testing.T) {
	h := newHeap(t, 4096)
	_, err := Replay(h, mustParse(t, "alloc a 8 3\n"), nil)
	require.ErrorIs(t, err, heap.ErrBadAlign)
}

// scribbler damages payloads on realloc so mismatches can be observed.
type scribbler struct {
	*heap.Heap
}

func (s scribbler) Realloc(p heap.Ptr, oldSize, align, newSize uint32) (heap.Ptr, error) {
	np, err := s.Heap.Realloc(p, oldSize, align, newSize)
	if err == nil && oldSize > 0 {
		s.Bytes(np, 1)[0] ^= 0xFF
	}
	return np, err
}

func TestReplay_DetectsPayloadCorruption(t *testing.T) {
	h := newHeap(t, 4096)
	res, err := Replay(scribbler{h}, mustParse(t, "alloc a 64 8\nrealloc a 128\nfree a\n"), nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Mismatches)
}

func TestReplay_LockedAllocator(t *testing.T) {
	h := newHeap(t, 4096)
	l := heap.NewLocked(h)

	res, err := Replay(l, mustParse(t, sampleTrace), nil)
	require.NoError(t, err)
	require.Equal(t, 6, res.Ops)
	require.Zero(t, res.Mismatches, "payload checks are skipped without Bytes")
	l.Do(func(heap.Allocator) { require.NoError(t, h.Verify()) })
}

func TestReplay_ZallocAfterDirtyFree(t *testing.T) {
	h := newHeap(t, 4096)
	res, err := Replay(h, mustParse(t, `
alloc a 512 1
free a
zalloc b 512 1
verify
`), nil)
	require.NoError(t, err)
	require.Zero(t, res.Mismatches)
	require.Equal(t, uint64(512), res.LiveBytes)
}
