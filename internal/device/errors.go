package device

import "errors"

var (
	// ErrUnavailable is returned when no device can be created.
	ErrUnavailable = errors.New("device: unavailable")
	// ErrKernelNotFound is returned when a pipeline names a kernel the library lacks.
	ErrKernelNotFound = errors.New("device: kernel not found")
	// ErrReleased is returned when using or releasing a buffer that was already released.
	ErrReleased = errors.New("device: buffer released")
	// ErrClosed is returned when using a closed device.
	ErrClosed = errors.New("device: closed")
	// ErrNotCommitted is returned when waiting on a command buffer that was never committed.
	ErrNotCommitted = errors.New("device: command buffer not committed")
)
