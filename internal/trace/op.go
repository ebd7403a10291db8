// Package trace reads allocation traces and replays them against a heap.
//
// A trace is line oriented. Blank lines and lines starting with '#' are
// ignored. Every other line is one operation:
//
//	alloc   <id> <size> <align>
//	zalloc  <id> <size> <align>
//	realloc <id> <newsize>
//	free    <id>
//	verify
//
// IDs are arbitrary labels chosen by the trace author. An id names at most
// one live allocation at a time and may be reused after it is freed.
package trace

import (
	"errors"
	"fmt"
)

// Kind identifies a trace operation.
type Kind uint8

const (
	KindAlloc Kind = iota + 1
	KindZalloc
	KindRealloc
	KindFree
	KindVerify
)

var kindNames = map[Kind]string{
	KindAlloc:   "alloc",
	KindZalloc:  "zalloc",
	KindRealloc: "realloc",
	KindFree:    "free",
	KindVerify:  "verify",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Op is one parsed trace line.
type Op struct {
	Kind  Kind
	Line  int    // 1-based source line
	ID    string // empty for verify
	Size  uint32 // size for alloc/zalloc, new size for realloc
	Align uint32 // alloc/zalloc only
}

func (op Op) String() string {
	switch op.Kind {
	case KindAlloc, KindZalloc:
		return fmt.Sprintf("%s %s %d %d", op.Kind, op.ID, op.Size, op.Align)
	case KindRealloc:
		return fmt.Sprintf("%s %s %d", op.Kind, op.ID, op.Size)
	case KindFree:
		return fmt.Sprintf("%s %s", op.Kind, op.ID)
	default:
		return op.Kind.String()
	}
}

var (
	// ErrSyntax is wrapped by every *SyntaxError.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrUnknownID indicates a realloc or free of an id with no live allocation.
	ErrUnknownID = errors.New("trace: unknown id")

	// ErrDuplicateID indicates an alloc of an id that is still live.
	ErrDuplicateID = errors.New("trace: id already live")
)

// SyntaxError reports a malformed trace line.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("trace: line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Unwrap lets errors.Is match ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}
