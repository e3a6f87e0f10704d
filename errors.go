package phreduce

import (
	"errors"
	"fmt"

	"github.com/hupe1980/phreduce/internal/column"
	"github.com/hupe1980/phreduce/internal/device"
	"github.com/hupe1980/phreduce/internal/engine"
	"github.com/hupe1980/phreduce/internal/loader"
)

var (
	// ErrIO is matched by every *IOError.
	ErrIO = errors.New("i/o error")

	// ErrFormat is matched by every *FormatError.
	ErrFormat = errors.New("malformed matrix")

	// ErrCapacityExceeded is returned when a column addition does not fit the
	// target column's slot. It indicates a broken capacity invariant.
	ErrCapacityExceeded = errors.New("column capacity exceeded")

	// ErrAcceleratorUnavailable is returned when no compute device or kernel
	// is available for the accelerated engine.
	ErrAcceleratorUnavailable = errors.New("accelerator unavailable")

	// ErrArenaOverflow is returned when the row-index arena would exceed
	// uint32 addressing.
	ErrArenaOverflow = errors.New("arena overflow")

	// ErrInvalidArgument is returned for invalid options or modes.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed is returned when using a closed Reducer.
	ErrClosed = errors.New("reducer closed")
)

// IOError reports a failure to read or write a matrix.
//
// The underlying error can be accessed via errors.Unwrap.
type IOError struct {
	Op   string
	Name string
	Err  error
}

func (e *IOError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is reports ErrIO as a match.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// FormatError reports malformed matrix content.
type FormatError struct {
	Line   int
	Reason string
	cause  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed matrix: line %d: %s", e.Line, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.cause }

// Is reports ErrFormat as a match.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// translateError maps internal sentinels onto the public error taxonomy.
// resource.ErrMemoryLimitExceeded passes through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var fe *loader.FormatError
	if errors.As(err, &fe) {
		return &FormatError{Line: fe.Line, Reason: fe.Reason, cause: err}
	}

	switch {
	case errors.Is(err, column.ErrCapacityExceeded):
		return fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
	case errors.Is(err, column.ErrArenaOverflow):
		return fmt.Errorf("%w: %w", ErrArenaOverflow, err)
	case errors.Is(err, device.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrAcceleratorUnavailable, err)
	case errors.Is(err, engine.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, engine.ErrUnknownKind),
		errors.Is(err, column.ErrInvalidColumn),
		errors.Is(err, column.ErrInvalidCoefficient):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return err
}
