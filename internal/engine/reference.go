package engine

import (
	"log/slog"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/phreduce/internal/column"
)

// Reference is the textbook left-to-right reduction over roaring bitmaps.
// Each column is reduced completely before the next one, adding the owner
// of its current low until the low is unowned or the column is empty.
type Reference struct {
	n      uint32
	cols   []*roaring.Bitmap
	log    *slog.Logger
	stats  Stats
	closed bool
}

// NewReference copies store into bitmap columns and frees it.
func NewReference(store *column.Store, cfg Config) *Reference {
	n := store.N()
	cols := make([]*roaring.Bitmap, n)
	for i := range n {
		cols[i] = roaring.BitmapOf(store.Column(i)...)
	}
	store.Free()

	return &Reference{
		n:    n,
		cols: cols,
		log:  cfg.logger(),
	}
}

// Size returns the number of columns.
func (e *Reference) Size() uint32 { return e.n }

// Stats returns the statistics of the last Reduce call.
func (e *Reference) Stats() Stats { return e.stats }

func (e *Reference) low(i uint32) uint32 {
	if e.cols[i].IsEmpty() {
		return e.n
	}
	return e.cols[i].Maximum()
}

// Reduce implements Engine.
func (e *Reference) Reduce(twist bool) ([]uint32, error) {
	if e.closed {
		return nil, ErrClosed
	}

	begin := time.Now()
	n := e.n
	stats := Stats{Engine: KindReference.String(), Passes: 1}

	if twist {
		for i := range n {
			if low := e.low(i); low != n && !e.cols[low].IsEmpty() {
				e.cols[low].Clear()
				stats.Cleared++
			}
		}
	}

	owner := filled(n, n)
	lows := make([]uint32, n)

	for j := range n {
		low := e.low(j)
		for low != n && owner[low] != n {
			e.cols[j].Xor(e.cols[owner[low]])
			stats.Merges++
			low = e.low(j)
		}
		if low != n {
			owner[low] = j
		}
		lows[j] = low
	}

	for _, c := range e.cols {
		stats.ArenaSize += c.GetCardinality()
	}
	stats.Duration = time.Since(begin)
	e.stats = stats
	logCompleted(e.log, stats)

	return lows, nil
}

// Close drops the bitmap columns.
func (e *Reference) Close() error {
	e.closed = true
	e.cols = nil
	return nil
}
