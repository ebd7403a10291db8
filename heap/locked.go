package heap

import "sync"

// Locked serializes access to an Allocator with a mutex. The engine itself
// takes no locks; share a heap between goroutines only through Locked.
type Locked struct {
	mu sync.Mutex
	a  Allocator
}

// NewLocked wraps a.
func NewLocked(a Allocator) *Locked {
	return &Locked{a: a}
}

// Alloc implements Allocator.
func (l *Locked) Alloc(size, align uint32) (Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Alloc(size, align)
}

// AllocZeroed implements Allocator.
func (l *Locked) AllocZeroed(size, align uint32) (Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.AllocZeroed(size, align)
}

// Realloc implements Allocator.
func (l *Locked) Realloc(p Ptr, oldSize, align, newSize uint32) (Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Realloc(p, oldSize, align, newSize)
}

// Free implements Allocator.
func (l *Locked) Free(p Ptr) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Free(p)
}

// Do runs fn with the lock held, for work that must not interleave with
// other callers, such as reading payload bytes or calling Verify.
func (l *Locked) Do(fn func(Allocator)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.a)
}
