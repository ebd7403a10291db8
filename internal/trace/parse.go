package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/mmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	commentPrefix = "#"

	scannerInitialBufferSize = 64 * 1024
	scannerMaxLineSize       = 1024 * 1024
)

// Parse reads a trace from r. The input is UTF-8; a UTF-8 or UTF-16 byte
// order mark is honoured. The first malformed line is reported as a
// *SyntaxError.
func Parse(r io.Reader) ([]Op, error) {
	// Editors on some platforms save traces as UTF-16 with a BOM.
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(r, decoder))
	scanner.Buffer(make([]byte, 0, scannerInitialBufferSize), scannerMaxLineSize)

	var ops []Op
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		op, err := parseLine(n, line)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning trace: %w", err)
	}
	return ops, nil
}

// Open maps the trace file at path read-only and parses it.
func Open(path string) ([]Op, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer ra.Close()

	ops, err := Parse(io.NewSectionReader(ra, 0, int64(ra.Len())))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

func parseLine(n int, line string) (Op, error) {
	fields := strings.Fields(line)
	fail := func(msg string) (Op, error) {
		return Op{}, &SyntaxError{Line: n, Text: line, Msg: msg}
	}

	op := Op{Line: n}
	var want int
	switch strings.ToLower(fields[0]) {
	case "alloc":
		op.Kind, want = KindAlloc, 4
	case "zalloc":
		op.Kind, want = KindZalloc, 4
	case "realloc":
		op.Kind, want = KindRealloc, 3
	case "free":
		op.Kind, want = KindFree, 2
	case "verify":
		op.Kind, want = KindVerify, 1
	default:
		return fail("unknown operation " + strconv.Quote(fields[0]))
	}
	if len(fields) != want {
		return fail(fmt.Sprintf("%s takes %d arguments, got %d", op.Kind, want-1, len(fields)-1))
	}
	if want == 1 {
		return op, nil
	}

	op.ID = fields[1]
	if want >= 3 {
		size, err := parseUint32(fields[2])
		if err != nil {
			return fail("bad size: " + err.Error())
		}
		op.Size = size
	}
	if want == 4 {
		align, err := parseUint32(fields[3])
		if err != nil {
			return fail("bad alignment: " + err.Error())
		}
		op.Align = align
	}
	return op, nil
}

// parseUint32 accepts decimal, 0x hex and 0o/0b forms.
func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) {
			return 0, ne.Err
		}
		return 0, err
	}
	return uint32(v), nil
}
