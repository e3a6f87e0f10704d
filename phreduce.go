package phreduce

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/phreduce/internal/column"
	"github.com/hupe1980/phreduce/internal/device"
	"github.com/hupe1980/phreduce/internal/engine"
	"github.com/hupe1980/phreduce/internal/loader"
	"github.com/hupe1980/phreduce/resource"
)

// Kind selects the reduction engine.
type Kind int

const (
	// Sequential reduces on a single goroutine.
	Sequential Kind = iota
	// Concurrent reduces in batched rounds on a worker pool.
	Concurrent
	// Accelerated reduces with data-parallel kernels on a compute device.
	Accelerated
	// Reference reduces roaring-bitmap columns left to right.
	Reference
)

var kindNames = map[Kind]string{
	Sequential:  "sparse",
	Concurrent:  "sparse-parallel",
	Accelerated: "sparse-accelerated",
	Reference:   "reference",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) engineKind() (engine.Kind, error) {
	switch k {
	case Sequential:
		return engine.KindSequential, nil
	case Concurrent:
		return engine.KindConcurrent, nil
	case Accelerated:
		return engine.KindAccelerated, nil
	case Reference:
		return engine.KindReference, nil
	default:
		return 0, fmt.Errorf("%w: engine kind %d", ErrInvalidArgument, int(k))
	}
}

// Mode is an engine kind plus the twist flag, as named on the command line.
type Mode struct {
	Kind  Kind
	Twist bool
}

func (m Mode) String() string {
	if m.Twist {
		return m.Kind.String() + "-twist"
	}
	return m.Kind.String()
}

// Modes returns every mode in command-line order.
func Modes() []Mode {
	var modes []Mode
	for _, k := range []Kind{Sequential, Concurrent, Accelerated, Reference} {
		modes = append(modes, Mode{Kind: k}, Mode{Kind: k, Twist: true})
	}
	return modes
}

// ParseMode parses a mode name such as "sparse" or "sparse-parallel-twist".
func ParseMode(s string) (Mode, error) {
	base, twist := strings.CutSuffix(s, "-twist")
	for k, name := range kindNames {
		if name == base {
			return Mode{Kind: k, Twist: twist}, nil
		}
	}
	return Mode{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, s)
}

// Stats describes the last Reduce call.
type Stats struct {
	Engine  string
	Passes  uint64
	Merges  uint64
	Widens  uint64
	Repacks uint64
	Cleared uint64

	ArenaSize      uint64
	PeakArenaBytes uint64

	Duration time.Duration
}

func statsFrom(s engine.Stats) Stats {
	return Stats{
		Engine:         s.Engine,
		Passes:         s.Passes,
		Merges:         s.Merges,
		Widens:         s.Widens,
		Repacks:        s.Repacks,
		Cleared:        s.Cleared,
		ArenaSize:      s.ArenaSize,
		PeakArenaBytes: s.PeakArenaBytes,
		Duration:       s.Duration,
	}
}

// Reducer holds a loaded boundary matrix and the engine that reduces it.
//
// A Reducer is safe for concurrent use; calls are serialized.
type Reducer struct {
	mu      sync.Mutex
	kind    Kind
	eng     engine.Engine
	dev     *device.Device
	logger  *Logger
	metrics MetricsCollector
	rc      *resource.Controller
	meta    int64
	closed  bool
}

// columnOverhead is the per-column metadata charged to the resource
// controller: a slice header while loading, start and end in the store, and
// the pending-merge and owner arrays of the engines.
const columnOverhead = 40

// Open loads the matrix called name from the configured blob store (the
// local filesystem by default) and prepares an engine of the given kind.
//
// A blob that cannot be opened or read yields an *IOError; malformed
// content yields a *FormatError.
func Open(ctx context.Context, kind Kind, name string, optFns ...Option) (*Reducer, error) {
	o, err := newOptions(optFns)
	if err != nil {
		return nil, err
	}

	blob, err := o.store.Open(ctx, name)
	if err != nil {
		return nil, &IOError{Op: "open", Name: name, Err: err}
	}
	defer blob.Close()

	var r io.Reader = blob
	if o.rc != nil {
		r = resource.NewRateLimitedReader(ctx, r, o.rc)
	}

	return open(ctx, kind, name, r, o)
}

// OpenReader loads a matrix from r and prepares an engine of the given kind.
func OpenReader(kind Kind, r io.Reader, optFns ...Option) (*Reducer, error) {
	o, err := newOptions(optFns)
	if err != nil {
		return nil, err
	}
	return open(context.Background(), kind, "", r, o)
}

func open(ctx context.Context, kind Kind, name string, r io.Reader, o options) (_ *Reducer, err error) {
	ek, err := kind.engineKind()
	if err != nil {
		return nil, err
	}

	var meta int64
	defer func() {
		if err != nil {
			o.rc.ReleaseMemory(meta)
		}
	}()
	reserve := func(columns uint32) error {
		b := int64(columns) * columnOverhead
		if err := o.rc.AcquireMemory(b); err != nil {
			return fmt.Errorf("%d columns: %w", columns, err)
		}
		meta = b
		return nil
	}

	start := time.Now()
	m, err := loader.Load(r, loader.WithReserve(reserve))
	if err != nil {
		var fe *loader.FormatError
		switch {
		case errors.As(err, &fe), errors.Is(err, resource.ErrMemoryLimitExceeded):
			err = translateError(err)
		default:
			err = &IOError{Op: "read", Name: name, Err: err}
		}
		o.metricsCollector.RecordLoad(0, 0, time.Since(start), err)
		o.logger.LogLoad(ctx, name, 0, 0, 0, err)
		return nil, err
	}
	o.metricsCollector.RecordLoad(len(m.Columns), m.Entries, time.Since(start), nil)
	o.logger.LogLoad(ctx, name, len(m.Columns), m.Entries, m.Cancelled, nil)

	storeOpts := []column.Option{column.WithGrowthCoefficient(o.coef)}
	if o.rc != nil {
		storeOpts = append(storeOpts, column.WithMemoryAcquirer(o.rc))
	}
	store, err := column.New(m.Columns, storeOpts...)
	if err != nil {
		return nil, translateError(err)
	}

	red := &Reducer{
		kind:    kind,
		logger:  o.logger.WithMode(Mode{Kind: kind}),
		metrics: o.metricsCollector,
		rc:      o.rc,
		meta:    meta,
	}

	cfg := engine.Config{
		Policy:    o.policy,
		BatchSize: o.batchSize,
		Workers:   o.workers,
		Logger:    red.logger.Logger,
	}
	if kind == Accelerated {
		dev, err := device.New(engine.Kernels(), o.deviceOptions()...)
		if err != nil {
			store.Free()
			return nil, translateError(err)
		}
		red.dev = dev
		cfg.Device = dev
	}

	eng, err := engine.New(ek, store, cfg)
	if err != nil {
		store.Free()
		if red.dev != nil {
			err = errors.Join(err, red.dev.Close())
		}
		return nil, translateError(err)
	}
	red.eng = eng

	return red, nil
}

// Reduce reduces the matrix to a fixed point and returns the low of every
// column; Size() marks an empty column. With twist, the clearing pre-pass
// runs first. Reducing an already reduced matrix returns the same lows.
func (r *Reducer) Reduce(twist bool) ([]uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	lows, err := r.eng.Reduce(twist)
	err = translateError(err)

	stats := statsFrom(r.eng.Stats())
	r.metrics.RecordReduce(r.kind.String(), stats, time.Since(start), err)
	r.logger.LogReduce(context.Background(), twist, countPairs(lows), err)

	if err != nil {
		return nil, err
	}
	return lows, nil
}

// Size returns the number of columns, which is also the empty-column low.
func (r *Reducer) Size() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eng.Size()
}

// Kind returns the engine kind.
func (r *Reducer) Kind() Kind {
	return r.kind
}

// Stats returns the statistics of the last Reduce call.
func (r *Reducer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return statsFrom(r.eng.Stats())
}

// Close releases the matrix and any device resources. Calling Close more
// than once is a no-op.
func (r *Reducer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	err := r.eng.Close()
	if r.dev != nil {
		err = errors.Join(err, r.dev.Close())
	}
	r.rc.ReleaseMemory(r.meta)
	return translateError(err)
}

func countPairs(lows []uint32) int {
	n := uint32(len(lows)) //nolint:gosec // at most MaxUint32 columns
	c := 0
	for _, l := range lows {
		if l != n {
			c++
		}
	}
	return c
}
