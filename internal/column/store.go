package column

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/phreduce/internal/arena"
	"github.com/hupe1980/phreduce/internal/conv"
)

// DefaultGrowthCoefficient is the default slot growth factor of a widen.
const DefaultGrowthCoefficient = 2

// Store is a sparse column store over a flat row-index arena.
//
// Merge may run concurrently for distinct targets as long as no source is
// also a target in the same round. Every other method requires exclusive
// access.
type Store struct {
	n     uint32
	start []uint32
	end   []uint32
	arena *arena.Arena
	coef  uint32
}

type options struct {
	acquirer arena.MemoryAcquirer
	coef     uint32
}

// Option configures a Store.
type Option func(*options)

// WithMemoryAcquirer charges arena allocations to acquirer.
func WithMemoryAcquirer(acquirer arena.MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = acquirer
	}
}

// WithGrowthCoefficient sets the widen growth factor (>= 2).
func WithGrowthCoefficient(coef uint32) Option {
	return func(o *options) {
		o.coef = coef
	}
}

// New builds a tightly packed store from sorted columns. Column i must be
// strictly increasing with every value below len(columns).
//
// Only the row arena is charged to the acquirer; callers that bound memory
// charge the per-column start and end slices before loading the columns.
func New(columns [][]uint32, optFns ...Option) (*Store, error) {
	o := options{coef: DefaultGrowthCoefficient}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.coef < 2 {
		return nil, ErrInvalidCoefficient
	}

	n, err := conv.IntToUint32(len(columns))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArenaOverflow, err)
	}

	start := make([]uint32, n)
	end := make([]uint32, n)

	var total uint64
	for i, col := range columns {
		for k, v := range col {
			if v >= n || (k > 0 && col[k-1] >= v) {
				return nil, fmt.Errorf("%w: column %d", ErrInvalidColumn, i)
			}
		}
		start[i] = uint32(total) //nolint:gosec // checked on the previous iteration
		total += uint64(len(col))
		if total > arena.MaxSize {
			return nil, ErrArenaOverflow
		}
		end[i] = uint32(total) //nolint:gosec // checked above
	}

	var arenaOpts []arena.Option
	if o.acquirer != nil {
		arenaOpts = append(arenaOpts, arena.WithMemoryAcquirer(o.acquirer))
	}
	a, err := arena.New(total, arenaOpts...)
	if err != nil {
		return nil, err
	}

	rows := a.Rows()
	for i, col := range columns {
		copy(rows[start[i]:end[i]], col)
	}

	return &Store{
		n:     n,
		start: start,
		end:   end,
		arena: a,
		coef:  o.coef,
	}, nil
}

// N returns the number of columns, which is also the "no low" sentinel.
func (s *Store) N() uint32 { return s.n }

// GrowthCoefficient returns the widen growth factor.
func (s *Store) GrowthCoefficient() uint32 { return s.coef }

// Low returns the largest row index of column i, or N() if it is empty.
func (s *Store) Low(i uint32) uint32 {
	if s.start[i] == s.end[i] {
		return s.n
	}
	return s.arena.Rows()[s.end[i]-1]
}

// Len returns the number of entries in column i.
func (s *Store) Len(i uint32) uint32 {
	return s.end[i] - s.start[i]
}

// Capacity returns the slot length of column i.
func (s *Store) Capacity(i uint32) uint32 {
	return slotOf(s.start, s.arena.Len(), i)
}

// HasCapacity reports whether a column of the projected length fits slot i.
func (s *Store) HasCapacity(i uint32, projected uint64) bool {
	return projected <= uint64(s.Capacity(i))
}

// Demand returns the projected length of column target after adding source.
func (s *Store) Demand(target, source uint32) uint64 {
	return Demand(s.Len(target), s.Len(source))
}

// Column returns a read-only view of column i.
func (s *Store) Column(i uint32) []uint32 {
	return s.arena.Rows()[s.start[i]:s.end[i]]
}

// Lows returns the low of every column.
func (s *Store) Lows() []uint32 {
	lows := make([]uint32, s.n)
	for i := range s.n {
		lows[i] = s.Low(i)
	}
	return lows
}

// Entries returns the number of nonzero entries.
func (s *Store) Entries() uint64 {
	var total uint64
	for i := range s.n {
		total += uint64(s.Len(i))
	}
	return total
}

// Layout exposes the raw start/end offsets and the row arena. The slices
// alias the store and are invalidated by Widen.
func (s *Store) Layout() (start, end, rows []uint32) {
	return s.start, s.end, s.arena.Rows()
}

// ArenaLen returns the length of the row-index arena.
func (s *Store) ArenaLen() uint32 {
	return s.arena.Len()
}

// ArenaStats returns the statistics of the underlying arena.
func (s *Store) ArenaStats() arena.Stats {
	return s.arena.Stats()
}

// Merge adds column source to column target over GF(2). An empty source is a
// no-op. If the result does not fit target's slot, ErrCapacityExceeded is
// returned and target is left untouched.
func (s *Store) Merge(target, source uint32) error {
	src := s.Column(source)
	if len(src) == 0 {
		return nil
	}

	lo := s.start[target]
	hi := lo + s.Capacity(target)
	rows := s.arena.Rows()
	scratch := s.arena.Scratch()

	k, ok := SymmetricDifference(scratch[lo:hi], rows[lo:s.end[target]], src)
	if !ok {
		return fmt.Errorf("%w: column %d (capacity %d)", ErrCapacityExceeded, target, hi-lo)
	}

	copy(rows[lo:], scratch[lo:lo+uint32(k)]) //nolint:gosec // k <= hi-lo
	s.end[target] = lo + uint32(k)            //nolint:gosec // k <= hi-lo

	return nil
}

// Widen repacks the arena according to policy. toAdd holds the pending merge
// source per column (N() meaning none) and is ignored by WidenUniform.
func (s *Store) Widen(policy WidenPolicy, toAdd []uint32) error {
	plan, err := PlanWiden(policy, s.coef, s.start, s.end, s.arena.Len(), toAdd)
	if err != nil {
		return err
	}

	next, err := s.arena.Reserve(uint64(plan.Size))
	if err != nil {
		return err
	}

	src := s.arena.Rows()
	dst := next.Rows()
	for i := range s.n {
		length := s.end[i] - s.start[i]
		copy(dst[plan.Start[i]:plan.Start[i]+length], src[s.start[i]:s.end[i]])
		s.end[i] = plan.Start[i] + length
	}

	s.arena.Free()
	s.arena = next
	s.start = plan.Start

	return nil
}

// Twist runs the clearing pre-pass and returns the set of cleared columns.
func (s *Store) Twist() *bitset.BitSet {
	return TwistRanges(s.start, s.end, s.arena.Rows())
}

// Validate checks the layout invariants: monotone starts, ends inside their
// slots and strictly increasing in-range row indices.
func (s *Store) Validate() error {
	rows := s.arena.Rows()
	for i := range s.n {
		if (i > 0 && s.start[i] < s.start[i-1]) || s.start[i] > s.arena.Len() {
			return fmt.Errorf("%w: column %d starts out of order", ErrInvalidColumn, i)
		}
	}
	for i := range s.n {
		if s.end[i] < s.start[i] || s.end[i]-s.start[i] > s.Capacity(i) {
			return fmt.Errorf("%w: column %d exceeds its slot", ErrInvalidColumn, i)
		}
		for k := s.start[i]; k < s.end[i]; k++ {
			if rows[k] >= s.n || (k > s.start[i] && rows[k-1] >= rows[k]) {
				return fmt.Errorf("%w: column %d is not strictly increasing", ErrInvalidColumn, i)
			}
		}
	}
	return nil
}

// Free releases the arena. The store must not be used afterwards.
func (s *Store) Free() {
	s.arena.Free()
}
