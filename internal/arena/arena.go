package arena

import (
	"errors"
	"math"
	"sync/atomic"
)

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(amount int64) error
	ReleaseMemory(amount int64)
}

var (
	// ErrOverflow is returned when the requested size exceeds uint32 addressing.
	ErrOverflow = errors.New("arena: size exceeds uint32 addressing")
	// ErrFreed is returned when reserving from an arena that was already freed.
	ErrFreed = errors.New("arena: already freed")
)

// MaxSize is the largest number of row indices an arena can hold.
const MaxSize = math.MaxUint32

const bytesPerEntry = 4

// Stats tracks arena memory usage metrics.
//
//   - Reservations: historical count of arenas in this lineage (initial + grows)
//   - BytesReserved: bytes held by the live arena (primary + scratch)
//   - PeakBytes: largest BytesReserved observed across the lineage
type Stats struct {
	Reservations  uint64
	BytesReserved uint64
	PeakBytes     uint64
}

type lineage struct {
	reservations atomic.Uint64
	peak         atomic.Uint64
}

// Arena is a flat row-index buffer with a scratch mirror.
type Arena struct {
	rows     []uint32
	scratch  []uint32
	acquirer MemoryAcquirer
	charged  int64
	freed    atomic.Bool
	lineage  *lineage
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithMemoryAcquirer sets the memory acquirer for the arena.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(a *Arena) {
		a.acquirer = acquirer
	}
}

// New creates a zeroed Arena holding size row indices.
func New(size uint64, opts ...Option) (*Arena, error) {
	a := &Arena{lineage: &lineage{}}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.alloc(size); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Arena) alloc(size uint64) error {
	if size > MaxSize {
		return ErrOverflow
	}

	charge := int64(size) * 2 * bytesPerEntry //nolint:gosec // size <= MaxUint32
	if a.acquirer != nil {
		if err := a.acquirer.AcquireMemory(charge); err != nil {
			return err
		}
	}

	a.rows = make([]uint32, size)
	a.scratch = make([]uint32, size)
	a.charged = charge

	a.lineage.reservations.Add(1)
	for {
		peak := a.lineage.peak.Load()
		if uint64(charge) <= peak || a.lineage.peak.CompareAndSwap(peak, uint64(charge)) {
			break
		}
	}

	return nil
}

// Reserve allocates a successor arena of the given size that shares this
// arena's acquirer and statistics. The receiver stays valid until Free.
func (a *Arena) Reserve(size uint64) (*Arena, error) {
	if a.freed.Load() {
		return nil, ErrFreed
	}

	next := &Arena{
		acquirer: a.acquirer,
		lineage:  a.lineage,
	}
	if err := next.alloc(size); err != nil {
		return nil, err
	}

	return next, nil
}

// Rows returns the primary buffer.
func (a *Arena) Rows() []uint32 {
	return a.rows
}

// Scratch returns the scratch mirror. Writers must stay inside the range they
// own in the primary buffer.
func (a *Arena) Scratch() []uint32 {
	return a.scratch
}

// Len returns the number of row indices the arena holds.
func (a *Arena) Len() uint32 {
	return uint32(len(a.rows)) //nolint:gosec // bounded by MaxSize at alloc
}

// Stats returns the current arena statistics.
func (a *Arena) Stats() Stats {
	s := Stats{
		Reservations: a.lineage.reservations.Load(),
		PeakBytes:    a.lineage.peak.Load(),
	}
	if !a.freed.Load() {
		s.BytesReserved = uint64(a.charged) //nolint:gosec // non-negative
	}
	return s
}

// Free drops both buffers and returns their memory to the acquirer.
// Calling Free more than once is a no-op.
func (a *Arena) Free() {
	if !a.freed.CompareAndSwap(false, true) {
		return
	}

	if a.acquirer != nil {
		a.acquirer.ReleaseMemory(a.charged)
	}

	a.rows = nil
	a.scratch = nil
}
