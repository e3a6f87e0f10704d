package device

import "sync/atomic"

// Buffer is device memory shared with the host.
type Buffer struct {
	device   *Device
	data     []uint32
	bytes    int64
	released atomic.Bool
}

// Contents returns the buffer memory. The host may read and write it only
// while no command buffer using it is executing.
func (b *Buffer) Contents() []uint32 {
	return b.data
}

// Len returns the number of uint32 values in the buffer.
func (b *Buffer) Len() uint32 {
	return uint32(len(b.data)) //nolint:gosec // created from a uint32 length
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b.released.Load()
}

// Release frees the buffer. A second Release returns ErrReleased.
func (b *Buffer) Release() error {
	if !b.released.CompareAndSwap(false, true) {
		return ErrReleased
	}

	b.device.rc.ReleaseMemory(b.bytes)
	b.device.liveBuffers.Add(-1)
	b.data = nil

	return nil
}
