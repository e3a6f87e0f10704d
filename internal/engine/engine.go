package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/phreduce/internal/column"
	"github.com/hupe1980/phreduce/internal/device"
	"github.com/hupe1980/phreduce/internal/pool"
)

// Engine reduces a boundary matrix it exclusively owns.
type Engine interface {
	// Reduce runs the reduction to a fixed point and returns the low of every
	// column, n meaning empty. Calling it again on a reduced matrix returns
	// the same lows.
	Reduce(twist bool) ([]uint32, error)
	// Size returns the number of columns.
	Size() uint32
	// Stats returns the statistics of the last Reduce call.
	Stats() Stats
	// Close releases the store and any device buffers.
	Close() error
}

// Kind selects an engine implementation.
type Kind int

const (
	// KindSequential is the single-goroutine engine.
	KindSequential Kind = iota
	// KindConcurrent is the worker-pool engine.
	KindConcurrent
	// KindAccelerated is the device engine.
	KindAccelerated
	// KindReference is the roaring-bitmap engine.
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindSequential:
		return "sequential"
	case KindConcurrent:
		return "concurrent"
	case KindAccelerated:
		return "accelerated"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Config holds engine settings.
type Config struct {
	// Policy selects how the arena is widened.
	Policy column.WidenPolicy
	// BatchSize is the number of columns per concurrent task (0 = pool.DefaultBatchSize).
	BatchSize uint32
	// Workers is the worker pool size (0 = GOMAXPROCS).
	Workers int
	// Device runs the accelerated engine.
	Device *device.Device
	// Logger receives per-pass debug and completion records.
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c Config) batchSize() uint32 {
	if c.BatchSize == 0 {
		return pool.DefaultBatchSize
	}
	return c.BatchSize
}

// Stats describes one Reduce call.
type Stats struct {
	Engine  string
	Passes  uint64
	Merges  uint64
	Widens  uint64 // passes that needed a repack
	Repacks uint64 // total repacks, >= Widens under the uniform policy
	Cleared uint64 // columns emptied by the twist pre-pass

	ArenaSize      uint64 // final row-index arena length
	PeakArenaBytes uint64

	Duration time.Duration
}

// New creates an engine of the given kind over store. On success the engine
// owns store; on error the caller keeps it.
func New(kind Kind, store *column.Store, cfg Config) (Engine, error) {
	switch kind {
	case KindSequential:
		return NewSequential(store, cfg), nil
	case KindConcurrent:
		return NewConcurrent(store, cfg), nil
	case KindAccelerated:
		return NewAccelerated(store, cfg)
	case KindReference:
		return NewReference(store, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

func filled(n, v uint32) []uint32 {
	s := make([]uint32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func logCompleted(log *slog.Logger, s Stats) {
	log.Info("Reduce completed",
		"engine", s.Engine,
		"passes", s.Passes,
		"merges", s.Merges,
		"widens", s.Widens,
		"cleared", s.Cleared,
		"duration", s.Duration)
}

func logRepacks(log *slog.Logger, engine string, pass, repacks uint64) {
	if repacks > 1 {
		log.Warn("Widen needed several repacks", "engine", engine, "pass", pass, "repacks", repacks)
	}
}
