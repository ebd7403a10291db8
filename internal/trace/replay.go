package trace

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/internal/logger"
)

// payloader is implemented by allocators that expose payload bytes.
type payloader interface {
	Bytes(p heap.Ptr, n uint32) []byte
}

// verifier is implemented by allocators that can check their own structure.
type verifier interface {
	Verify() error
}

// Options configures Replay. A nil *Options uses the defaults.
type Options struct {
	// Logger receives per-op debug records and mismatch warnings.
	// Defaults to logger.L.
	Logger *slog.Logger

	// FailOnOOM turns out-of-memory results into errors instead of counting them.
	FailOnOOM bool
}

// Result summarizes a replay.
type Result struct {
	Ops         int    `json:"ops"`
	Allocs      int    `json:"allocs"`
	Reallocs    int    `json:"reallocs"`
	Moved       int    `json:"moved"`
	Frees       int    `json:"frees"`
	Verifies    int    `json:"verifies"`
	OutOfMemory int    `json:"out_of_memory"`
	Mismatches  int    `json:"mismatches"`
	Live        int    `json:"live"`
	LiveBytes   uint64 `json:"live_bytes"`
	PeakLive    int    `json:"peak_live"`
	PeakBytes   uint64 `json:"peak_bytes"`
}

type entry struct {
	ptr   heap.Ptr
	size  uint32
	align uint32
	seed  byte
}

type replayer struct {
	a      heap.Allocator
	bytes  payloader
	log    *slog.Logger
	strict bool

	live   map[string]*entry
	serial byte
	res    Result
}

// Replay runs ops in order against a. Payloads are filled with an
// id-specific pattern when a exposes its bytes, and the pattern is checked
// before every free and after every realloc; a broken pattern counts as a
// mismatch. Unknown or duplicate ids, contract errors and failed verify ops
// stop the replay with an error naming the line.
func Replay(a heap.Allocator, ops []Op, opts *Options) (Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	r := &replayer{
		a:      a,
		log:    opts.Logger,
		strict: opts.FailOnOOM,
		live:   make(map[string]*entry),
	}
	if r.log == nil {
		r.log = logger.L
	}
	r.bytes, _ = a.(payloader)

	for _, op := range ops {
		if err := r.step(op); err != nil {
			return r.res, fmt.Errorf("line %d (%s): %w", op.Line, op, err)
		}
		r.res.Ops++
	}
	return r.res, nil
}

func (r *replayer) step(op Op) error {
	r.log.Debug("trace op", "line", op.Line, "op", op.Kind.String(), "id", op.ID, "size", op.Size)

	switch op.Kind {
	case KindAlloc, KindZalloc:
		return r.alloc(op)
	case KindRealloc:
		return r.realloc(op)
	case KindFree:
		return r.free(op)
	case KindVerify:
		r.res.Verifies++
		if v, ok := r.a.(verifier); ok {
			return v.Verify()
		}
		return nil
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}
}

func (r *replayer) alloc(op Op) error {
	if _, ok := r.live[op.ID]; ok {
		return ErrDuplicateID
	}

	var (
		p   heap.Ptr
		err error
	)
	if op.Kind == KindZalloc {
		p, err = r.a.AllocZeroed(op.Size, op.Align)
	} else {
		p, err = r.a.Alloc(op.Size, op.Align)
	}
	if err != nil {
		return r.outOfMemory(err)
	}

	if op.Kind == KindZalloc && r.bytes != nil {
		for i, b := range r.bytes.Bytes(p, op.Size) {
			if b != 0 {
				r.mismatch(op, fmt.Sprintf("zeroed payload has %#x at byte %d", b, i))
				break
			}
		}
	}

	r.serial++
	e := &entry{ptr: p, size: op.Size, align: op.Align, seed: r.serial}
	r.fill(e, 0)
	r.live[op.ID] = e
	r.res.Allocs++
	r.res.LiveBytes += uint64(op.Size)
	r.res.Live = len(r.live)
	r.res.PeakLive = max(r.res.PeakLive, r.res.Live)
	r.res.PeakBytes = max(r.res.PeakBytes, r.res.LiveBytes)
	return nil
}

func (r *replayer) realloc(op Op) error {
	e, ok := r.live[op.ID]
	if !ok {
		return ErrUnknownID
	}
	np, err := r.a.Realloc(e.ptr, e.size, e.align, op.Size)
	if err != nil {
		if oomErr := r.outOfMemory(err); oomErr != nil {
			return oomErr
		}
		r.check(op, e, e.size)
		return nil
	}

	r.res.Reallocs++
	if np != e.ptr {
		r.res.Moved++
	}
	kept := min(e.size, op.Size)
	old := e.size
	e.ptr = np
	r.check(op, e, kept)
	e.size = op.Size
	r.fill(e, kept)

	r.res.LiveBytes = r.res.LiveBytes - uint64(old) + uint64(op.Size)
	r.res.PeakBytes = max(r.res.PeakBytes, r.res.LiveBytes)
	return nil
}

func (r *replayer) free(op Op) error {
	e, ok := r.live[op.ID]
	if !ok {
		return ErrUnknownID
	}
	r.check(op, e, e.size)
	if err := r.a.Free(e.ptr); err != nil {
		return err
	}
	delete(r.live, op.ID)
	r.res.Frees++
	r.res.LiveBytes -= uint64(e.size)
	r.res.Live = len(r.live)
	return nil
}

func (r *replayer) outOfMemory(err error) error {
	if !errors.Is(err, heap.ErrOutOfMemory) || r.strict {
		return err
	}
	r.res.OutOfMemory++
	return nil
}

// pattern is the byte expected at offset i of an entry's payload.
func pattern(seed byte, i uint32) byte {
	return seed ^ byte(i*31)
}

// fill writes the entry pattern into the payload from byte from onward.
func (r *replayer) fill(e *entry, from uint32) {
	if r.bytes == nil {
		return
	}
	b := r.bytes.Bytes(e.ptr, e.size)
	for i := from; i < uint32(len(b)); i++ {
		b[i] = pattern(e.seed, i)
	}
}

// check verifies the first n bytes of the entry's payload. A damaged range
// is rewritten so the same damage is reported only once.
func (r *replayer) check(op Op, e *entry, n uint32) {
	if r.bytes == nil {
		return
	}
	b := r.bytes.Bytes(e.ptr, n)
	for i := range uint32(len(b)) {
		if b[i] != pattern(e.seed, i) {
			r.mismatch(op, fmt.Sprintf("payload byte %d is %#x, want %#x", i, b[i], pattern(e.seed, i)))
			for j := range uint32(len(b)) {
				b[j] = pattern(e.seed, j)
			}
			return
		}
	}
}

func (r *replayer) mismatch(op Op, detail string) {
	r.res.Mismatches++
	r.log.Warn("payload mismatch", "line", op.Line, "id", op.ID, "detail", detail)
}
