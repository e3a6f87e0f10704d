package engine

import (
	"log/slog"
	"time"

	"github.com/hupe1980/phreduce/internal/column"
)

// Sequential reduces on the calling goroutine in ascending column order.
type Sequential struct {
	store  *column.Store
	policy column.WidenPolicy
	log    *slog.Logger
	stats  Stats
	closed bool
}

// NewSequential creates a sequential engine that owns store.
func NewSequential(store *column.Store, cfg Config) *Sequential {
	return &Sequential{
		store:  store,
		policy: cfg.Policy,
		log:    cfg.logger(),
	}
}

// Size returns the number of columns.
func (e *Sequential) Size() uint32 { return e.store.N() }

// Stats returns the statistics of the last Reduce call.
func (e *Sequential) Stats() Stats { return e.stats }

// Reduce implements Engine.
func (e *Sequential) Reduce(twist bool) ([]uint32, error) {
	if e.closed {
		return nil, ErrClosed
	}

	begin := time.Now()
	s := e.store
	n := s.N()
	stats := Stats{Engine: KindSequential.String()}

	if twist {
		stats.Cleared = uint64(s.Twist().Count())
	}

	toAdd := filled(n, n)
	inverseLow := filled(n, n)

	for {
		stats.Passes++

		var pending uint64
		for i := range n {
			low := s.Low(i)
			if low == n {
				continue
			}
			if owner := inverseLow[low]; owner == n {
				inverseLow[low] = i
			} else {
				toAdd[i] = owner
				pending++
			}
		}

		if pending == 0 {
			break
		}

		repacks, err := widenUntilFits(s, e.policy, toAdd)
		if err != nil {
			return nil, err
		}
		if repacks > 0 {
			stats.Widens++
			stats.Repacks += repacks
			logRepacks(e.log, stats.Engine, stats.Passes, repacks)
		}
		e.log.Debug("Reduce pass", "engine", stats.Engine, "pass", stats.Passes, "pending", pending, "widened", repacks > 0)

		for i := range n {
			if toAdd[i] == n {
				continue
			}
			if err := s.Merge(i, toAdd[i]); err != nil {
				return nil, err
			}
			toAdd[i] = n
			stats.Merges++
		}

		for i := range inverseLow {
			inverseLow[i] = n
		}
	}

	e.finish(&stats, begin)
	return s.Lows(), nil
}

func (e *Sequential) finish(stats *Stats, begin time.Time) {
	stats.PeakArenaBytes = e.store.ArenaStats().PeakBytes
	stats.ArenaSize = uint64(e.store.ArenaLen())
	stats.Duration = time.Since(begin)
	e.stats = *stats
	logCompleted(e.log, *stats)
}

// Close frees the store.
func (e *Sequential) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.store.Free()
	return nil
}

// fits reports whether every pending merge fits its target slot.
func fits(s *column.Store, toAdd []uint32, lo, hi uint32) bool {
	n := s.N()
	for i := lo; i < hi; i++ {
		if src := toAdd[i]; src != n && !s.HasCapacity(i, s.Demand(i, src)) {
			return false
		}
	}
	return true
}

// widenUntilFits repacks the store until every pending merge fits and
// returns the number of repacks.
func widenUntilFits(s *column.Store, policy column.WidenPolicy, toAdd []uint32) (uint64, error) {
	var repacks uint64
	for !fits(s, toAdd, 0, s.N()) {
		if err := s.Widen(policy, toAdd); err != nil {
			return repacks, err
		}
		repacks++
	}
	return repacks, nil
}
