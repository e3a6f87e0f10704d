package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/phreduce/internal/column"
	"github.com/hupe1980/phreduce/internal/pool"
)

// Concurrent reduces in rounds of batches on a worker pool.
//
// Per pass:
//  1. claim: every column with a low claims it in the OwnerTable
//  2. resolve: non-owners record their owner in toAdd and check capacity
//  3. widen (single-threaded) if any pending merge would not fit
//  4. merge: every pending column adds its owner; every column resets the
//     ownership slot equal to its own index
//
// Within a round each column writes only its own toAdd entry, its own range
// and its own ownership slot, and sources are owners, which are never
// targets.
type Concurrent struct {
	store   *column.Store
	policy  column.WidenPolicy
	batch   uint32
	workers int
	log     *slog.Logger
	stats   Stats
	closed  bool
}

// NewConcurrent creates a concurrent engine that owns store.
func NewConcurrent(store *column.Store, cfg Config) *Concurrent {
	return &Concurrent{
		store:   store,
		policy:  cfg.Policy,
		batch:   cfg.batchSize(),
		workers: cfg.Workers,
		log:     cfg.logger(),
	}
}

// Size returns the number of columns.
func (e *Concurrent) Size() uint32 { return e.store.N() }

// Stats returns the statistics of the last Reduce call.
func (e *Concurrent) Stats() Stats { return e.stats }

// firstError keeps the first error reported by concurrent tasks.
type firstError struct {
	once sync.Once
	err  error
}

func (f *firstError) set(err error) {
	f.once.Do(func() { f.err = err })
}

// Reduce implements Engine.
func (e *Concurrent) Reduce(twist bool) ([]uint32, error) {
	if e.closed {
		return nil, ErrClosed
	}

	begin := time.Now()
	s := e.store
	n := s.N()
	stats := Stats{Engine: KindConcurrent.String()}

	wp := pool.NewWorkerPool(e.workers)
	defer wp.Close()

	if twist {
		stats.Cleared = uint64(s.Twist().Count())
	}

	toAdd := filled(n, n)
	owners := NewOwnerTable(n)

	for {
		stats.Passes++

		// Round 1: claim.
		if err := wp.Dispatch(n, e.batch, func(lo, hi uint32) {
			for i := lo; i < hi; i++ {
				if low := s.Low(i); low != n {
					owners.Claim(low, i)
				}
			}
		}); err != nil {
			return nil, err
		}

		// Round 2: resolve and check capacity.
		var pending atomic.Uint64
		var needWiden atomic.Bool
		if err := wp.Dispatch(n, e.batch, func(lo, hi uint32) {
			var local uint64
			for i := lo; i < hi; i++ {
				low := s.Low(i)
				if low == n {
					continue
				}
				if owner := owners.Owner(low); owner != i {
					toAdd[i] = owner
					local++
					if !needWiden.Load() && !s.HasCapacity(i, s.Demand(i, owner)) {
						needWiden.Store(true)
					}
				}
			}
			pending.Add(local)
		}); err != nil {
			return nil, err
		}

		if pending.Load() == 0 {
			break
		}

		// Round 3: widen.
		var repacks uint64
		for needWiden.Load() {
			if err := s.Widen(e.policy, toAdd); err != nil {
				return nil, err
			}
			repacks++

			needWiden.Store(false)
			if err := wp.Dispatch(n, e.batch, func(lo, hi uint32) {
				if !needWiden.Load() && !fits(s, toAdd, lo, hi) {
					needWiden.Store(true)
				}
			}); err != nil {
				return nil, err
			}
		}
		if repacks > 0 {
			stats.Widens++
			stats.Repacks += repacks
			logRepacks(e.log, stats.Engine, stats.Passes, repacks)
		}
		e.log.Debug("Reduce pass", "engine", stats.Engine, "pass", stats.Passes, "pending", pending.Load(), "widened", repacks > 0)

		// Round 4: merge and reset ownership.
		var merges atomic.Uint64
		var mergeErr firstError
		if err := wp.Dispatch(n, e.batch, func(lo, hi uint32) {
			var local uint64
			for i := lo; i < hi; i++ {
				if src := toAdd[i]; src != n {
					if err := s.Merge(i, src); err != nil {
						mergeErr.set(err)
					}
					toAdd[i] = n
					local++
				}
				owners.Reset(i)
			}
			merges.Add(local)
		}); err != nil {
			return nil, err
		}
		if mergeErr.err != nil {
			return nil, mergeErr.err
		}
		stats.Merges += merges.Load()
	}

	stats.PeakArenaBytes = s.ArenaStats().PeakBytes
	stats.ArenaSize = uint64(s.ArenaLen())
	stats.Duration = time.Since(begin)
	e.stats = stats
	logCompleted(e.log, stats)

	return s.Lows(), nil
}

// Close frees the store.
func (e *Concurrent) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.store.Free()
	return nil
}
