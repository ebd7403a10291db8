package heap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocked_ConcurrentAccess(t *testing.T) {
	h := newTestHeap(t, 1<<20, nil)
	l := NewLocked(h)

	var wg sync.WaitGroup
	const goroutines = 8
	const opsPerGoroutine = 500
	errs := make(chan error, goroutines)

	wg.Add(goroutines)
	for g := range goroutines {
		go func(id int) {
			defer wg.Done()
			var mine []Ptr
			for i := range opsPerGoroutine {
				size := uint32(16 + (id*37+i)%200)
				p, err := l.Alloc(size, 8)
				if err != nil {
					errs <- err
					return
				}
				l.Do(func(Allocator) { fill(h, p, size, byte(id)) })
				mine = append(mine, p)

				if i%3 == 2 {
					victim := mine[0]
					mine = mine[1:]
					if err := l.Free(victim); err != nil {
						errs <- err
						return
					}
				}
			}
			for _, p := range mine {
				if err := l.Free(p); err != nil {
					errs <- err
					return
				}
			}
		}(g)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	l.Do(func(a Allocator) {
		require.Same(t, h, a)
		requireValid(t, h)
		require.Equal(t, 1, h.Usage().FreeCells)
		require.Equal(t, goroutines*opsPerGoroutine, h.Stats().AllocCalls)
	})
}

func TestLocked_ForwardsErrors(t *testing.T) {
	l := NewLocked(newTestHeap(t, 256, nil))

	_, err := l.Alloc(16, 3)
	require.ErrorIs(t, err, ErrBadAlign)
	_, err = l.AllocZeroed(1<<20, 1)
	require.ErrorIs(t, err, ErrTooLarge)
	require.ErrorIs(t, l.Free(0), ErrBadPointer)

	p, err := l.AllocZeroed(32, 4)
	require.NoError(t, err)
	p, err = l.Realloc(p, 32, 4, 64)
	require.NoError(t, err)
	require.NoError(t, l.Free(p))
}
