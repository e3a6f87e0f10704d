package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/phreduce/internal/conv"
)

// ErrFormat is the sentinel wrapped by every FormatError.
var ErrFormat = errors.New("malformed matrix")

// MaxLineBytes bounds a single input line.
const MaxLineBytes = 1 << 30

// initialColumns caps the capacity reserved from an unverified header.
const initialColumns = 1 << 16

// FormatError reports malformed input at a 1-based line number.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Unwrap returns ErrFormat.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// Matrix is a parsed boundary matrix.
type Matrix struct {
	// Columns holds the strictly increasing row indices of every column.
	Columns [][]uint32
	// Entries is the number of surviving entries.
	Entries uint64
	// Cancelled is the number of entries removed as GF(2) duplicates.
	Cancelled uint64
}

// Option configures Load and Parse.
type Option func(*options)

type options struct {
	reserve func(columns uint32) error
}

// WithReserve calls fn with the column count of the header before any
// per-column memory is allocated. An error from fn aborts parsing and is
// returned unchanged.
func WithReserve(fn func(columns uint32) error) Option {
	return func(o *options) {
		o.reserve = fn
	}
}

// Load decompresses r if needed and parses it.
func Load(r io.Reader, optFns ...Option) (*Matrix, error) {
	rc, _, err := Decompress(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return Parse(rc, optFns...)
}

// Parse reads an uncompressed matrix from r. Read errors are returned
// wrapped; malformed content is a *FormatError.
//
// Columns grow with the lines actually read; the header count only pads the
// tail with empty columns once the input is exhausted.
func Parse(r io.Reader, optFns ...Option) (*Matrix, error) {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	line := 0
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, &FormatError{Line: 1, Reason: "missing header"}
	}
	line++

	header := trimSpace(sc.Bytes())
	n, err := conv.ParseUint32(header)
	if err != nil {
		return nil, &FormatError{Line: line, Reason: fmt.Sprintf("invalid header: %v", err)}
	}

	if o.reserve != nil {
		if err := o.reserve(n); err != nil {
			return nil, err
		}
	}

	m := &Matrix{Columns: make([][]uint32, 0, min(n, initialColumns))}
	var col uint32
	for sc.Scan() {
		line++
		text := sc.Bytes()

		if col == n {
			if len(trimSpace(text)) != 0 {
				return nil, &FormatError{Line: line, Reason: fmt.Sprintf("more than %d columns", n)}
			}
			continue
		}

		entries, err := parseColumn(text, n)
		if err != nil {
			return nil, &FormatError{Line: line, Reason: err.Error()}
		}
		kept := cancelPairs(entries)
		m.Cancelled += uint64(len(entries) - len(kept))
		m.Entries += uint64(len(kept))
		m.Columns = append(m.Columns, kept)
		col++
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &FormatError{Line: line + 1, Reason: "line too long"}
		}
		return nil, fmt.Errorf("read line %d: %w", line+1, err)
	}

	if col < n {
		m.Columns = slices.Grow(m.Columns, int(n-col))[:n]
	}
	return m, nil
}

func parseColumn(text []byte, n uint32) ([]uint32, error) {
	var entries []uint32
	for i := 0; i < len(text); {
		if isSpace(text[i]) {
			i++
			continue
		}
		j := i
		for j < len(text) && !isSpace(text[j]) {
			j++
		}
		v, err := conv.ParseUint32(text[i:j])
		if err != nil {
			return nil, err
		}
		if v >= n {
			return nil, fmt.Errorf("row index %d out of range [0, %d)", v, n)
		}
		entries = append(entries, v)
		i = j
	}
	return entries, nil
}

// cancelPairs sorts entries and drops values that occur an even number of
// times.
func cancelPairs(entries []uint32) []uint32 {
	slices.Sort(entries)

	out := entries[:0]
	for i := 0; i < len(entries); {
		j := i
		for j < len(entries) && entries[j] == entries[i] {
			j++
		}
		if (j-i)%2 == 1 {
			out = append(out, entries[i])
		}
		i = j
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\v' || b == '\f'
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && isSpace(b[0]) {
		b = b[1:]
	}
	for len(b) > 0 && isSpace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}
