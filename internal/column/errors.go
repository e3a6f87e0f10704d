package column

import (
	"errors"

	"github.com/hupe1980/phreduce/internal/arena"
)

var (
	// ErrCapacityExceeded is returned when a merge result does not fit the target slot.
	ErrCapacityExceeded = errors.New("column: capacity exceeded")
	// ErrArenaOverflow is returned when a repack would exceed uint32 addressing.
	ErrArenaOverflow = arena.ErrOverflow
	// ErrInvalidColumn is returned when a column is unsorted or addresses a row outside the matrix.
	ErrInvalidColumn = errors.New("column: invalid column")
	// ErrInvalidCoefficient is returned for growth coefficients below 2.
	ErrInvalidCoefficient = errors.New("column: growth coefficient must be at least 2")
)
