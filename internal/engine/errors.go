package engine

import (
	"errors"

	"github.com/hupe1980/phreduce/internal/column"
	"github.com/hupe1980/phreduce/internal/device"
)

var (
	// ErrCapacityExceeded is returned when a merge does not fit its target slot.
	ErrCapacityExceeded = column.ErrCapacityExceeded

	// ErrArenaOverflow is returned when a widen would exceed uint32 addressing.
	ErrArenaOverflow = column.ErrArenaOverflow

	// ErrAcceleratorUnavailable is returned when no device or kernel is available.
	ErrAcceleratorUnavailable = device.ErrUnavailable

	// ErrUnknownKind is returned by New for an unsupported engine kind.
	ErrUnknownKind = errors.New("engine: unknown kind")

	// ErrClosed is returned when reducing with a closed engine.
	ErrClosed = errors.New("engine: closed")
)
