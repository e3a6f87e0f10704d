package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/phreduce/internal/column"
	"github.com/hupe1980/phreduce/internal/device"
)

// Accelerated reduces with data-parallel kernels on a device.
//
// The host blocks on every dispatch and replaces buffers only between
// dispatches. The widen plan runs on the host over the shared buffer
// contents.
//
// The twist pre-pass is data-parallel: each column clears the target of its
// unreduced low regardless of whether it is cleared itself in the same
// dispatch. For boundary matrices, where faces precede cofaces, every such
// target reduces to zero anyway, so the lows match the host engines. The
// cleared count can differ from theirs on other inputs.
type Accelerated struct {
	dev    *device.Device
	queue  *device.CommandQueue
	policy column.WidenPolicy
	coef   uint32
	n      uint32
	log    *slog.Logger

	countInverseLow *device.Pipeline
	countToAdd      *device.Pipeline
	copyToNewStart  *device.Pipeline
	addColumns      *device.Pipeline
	runTwist        *device.Pipeline

	bufs  buffers
	peak  uint64
	stats Stats
}

type buffers struct {
	start, end, rows, scratch, toAdd, inverseLow, flags *device.Buffer
}

func (b *buffers) each(fn func(**device.Buffer)) {
	for _, p := range []**device.Buffer{&b.start, &b.end, &b.rows, &b.scratch, &b.toAdd, &b.inverseLow, &b.flags} {
		fn(p)
	}
}

// release releases every live buffer exactly once.
func (b *buffers) release() error {
	var errs []error
	b.each(func(p **device.Buffer) {
		if *p != nil {
			errs = append(errs, (*p).Release())
			*p = nil
		}
	})
	return errors.Join(errs...)
}

// NewAccelerated uploads store to cfg.Device and frees it. It returns
// ErrAcceleratorUnavailable when there is no device or a kernel is missing.
func NewAccelerated(store *column.Store, cfg Config) (*Accelerated, error) {
	if cfg.Device == nil {
		return nil, fmt.Errorf("%w: no device configured", ErrAcceleratorUnavailable)
	}

	e := &Accelerated{
		dev:    cfg.Device,
		policy: cfg.Policy,
		coef:   store.GrowthCoefficient(),
		n:      store.N(),
		log:    cfg.logger(),
	}

	for _, p := range []struct {
		dst  **device.Pipeline
		name string
	}{
		{&e.countInverseLow, KernelCountInverseLow},
		{&e.countToAdd, KernelCountToAdd},
		{&e.copyToNewStart, KernelCopyToNewStart},
		{&e.addColumns, KernelAddColumns},
		{&e.runTwist, KernelRunTwist},
	} {
		pipeline, err := e.dev.NewPipeline(p.name)
		if err != nil {
			return nil, err
		}
		*p.dst = pipeline
	}

	queue, err := e.dev.NewCommandQueue()
	if err != nil {
		return nil, err
	}
	e.queue = queue

	if err := e.upload(store); err != nil {
		return nil, errors.Join(err, e.bufs.release())
	}
	store.Free()

	return e, nil
}

func (e *Accelerated) upload(store *column.Store) error {
	start, end, rows := store.Layout()
	none := filled(e.n, e.n)

	var err error
	if e.bufs.start, err = e.dev.NewBufferFrom(start); err != nil {
		return err
	}
	if e.bufs.end, err = e.dev.NewBufferFrom(end); err != nil {
		return err
	}
	if e.bufs.rows, err = e.dev.NewBufferFrom(rows); err != nil {
		return err
	}
	if e.bufs.scratch, err = e.dev.NewBuffer(e.bufs.rows.Len()); err != nil {
		return err
	}
	if e.bufs.toAdd, err = e.dev.NewBufferFrom(none); err != nil {
		return err
	}
	if e.bufs.inverseLow, err = e.dev.NewBufferFrom(none); err != nil {
		return err
	}
	if e.bufs.flags, err = e.dev.NewBuffer(flagCount); err != nil {
		return err
	}

	e.trackPeak()
	return nil
}

func (e *Accelerated) trackPeak() {
	if b := uint64(e.bufs.rows.Len()) * 8; b > e.peak {
		e.peak = b
	}
}

// Size returns the number of columns.
func (e *Accelerated) Size() uint32 { return e.n }

// Stats returns the statistics of the last Reduce call.
func (e *Accelerated) Stats() Stats { return e.stats }

// Device returns the device the engine runs on.
func (e *Accelerated) Device() *device.Device { return e.dev }

func (e *Accelerated) run(p *device.Pipeline, args device.Arguments) error {
	cb := e.queue.NewCommandBuffer()
	cb.Dispatch(p, e.n, args)
	cb.Commit()
	return cb.WaitUntilCompleted()
}

func (e *Accelerated) constants() []uint32 {
	return []uint32{e.n}
}

// Reduce implements Engine.
func (e *Accelerated) Reduce(twist bool) ([]uint32, error) {
	if e.bufs.rows == nil {
		return nil, ErrClosed
	}

	begin := time.Now()
	stats := Stats{Engine: KindAccelerated.String()}

	flags := e.bufs.flags.Contents()

	if twist {
		flags[flagCleared] = 0
		if err := e.run(e.runTwist, device.Arguments{
			Buffers:   []*device.Buffer{e.bufs.start, e.bufs.end, e.bufs.rows, e.bufs.flags},
			Constants: e.constants(),
		}); err != nil {
			return nil, err
		}
		stats.Cleared = uint64(flags[flagCleared])
	}

	for {
		stats.Passes++
		flags[flagIsOver], flags[flagNeedWiden], flags[flagOverflow] = 1, 0, 0

		if err := e.run(e.countInverseLow, device.Arguments{
			Buffers:   []*device.Buffer{e.bufs.start, e.bufs.end, e.bufs.rows, e.bufs.inverseLow},
			Constants: e.constants(),
		}); err != nil {
			return nil, err
		}
		if err := e.resolve(); err != nil {
			return nil, err
		}

		if flags[flagIsOver] == 1 {
			break
		}

		var repacks uint64
		for flags[flagNeedWiden] == 1 {
			if err := e.widen(); err != nil {
				return nil, err
			}
			repacks++
			flags[flagNeedWiden] = 0
			if err := e.resolve(); err != nil {
				return nil, err
			}
		}
		if repacks > 0 {
			stats.Widens++
			stats.Repacks += repacks
			logRepacks(e.log, stats.Engine, stats.Passes, repacks)
		}
		e.log.Debug("Reduce pass", "engine", stats.Engine, "pass", stats.Passes, "widened", repacks > 0)

		toAdd := e.bufs.toAdd.Contents()
		for _, src := range toAdd {
			if src != e.n {
				stats.Merges++
			}
		}

		if err := e.run(e.addColumns, device.Arguments{
			Buffers: []*device.Buffer{
				e.bufs.start, e.bufs.end, e.bufs.rows, e.bufs.scratch,
				e.bufs.toAdd, e.bufs.inverseLow, e.bufs.flags,
			},
			Constants: e.constants(),
		}); err != nil {
			return nil, err
		}
		if flags[flagOverflow] == 1 {
			return nil, fmt.Errorf("%w: during %s", ErrCapacityExceeded, KernelAddColumns)
		}
	}

	// The last pass leaves owners claimed; clear them for the next call.
	inverseLow := e.bufs.inverseLow.Contents()
	for i := range inverseLow {
		inverseLow[i] = e.n
	}

	stats.ArenaSize = uint64(e.bufs.rows.Len())
	stats.PeakArenaBytes = e.peak
	stats.Duration = time.Since(begin)
	e.stats = stats
	logCompleted(e.log, stats)

	return e.lows(), nil
}

func (e *Accelerated) resolve() error {
	return e.run(e.countToAdd, device.Arguments{
		Buffers: []*device.Buffer{
			e.bufs.start, e.bufs.end, e.bufs.rows,
			e.bufs.inverseLow, e.bufs.toAdd, e.bufs.flags,
		},
		Constants: e.constants(),
	})
}

// widen allocates new row and scratch buffers, uploads the host-computed
// starts, moves every column with copy_to_new_start and adopts the new
// buffers. The old buffers are released exactly once.
func (e *Accelerated) widen() error {
	plan, err := column.PlanWiden(e.policy, e.coef,
		e.bufs.start.Contents(), e.bufs.end.Contents(), e.bufs.rows.Len(), e.bufs.toAdd.Contents())
	if err != nil {
		return err
	}

	next := buffers{}
	if next.rows, err = e.dev.NewBuffer(plan.Size); err != nil {
		return err
	}
	if next.scratch, err = e.dev.NewBuffer(plan.Size); err != nil {
		return errors.Join(err, next.release())
	}
	newStart, err := e.dev.NewBufferFrom(plan.Start)
	if err != nil {
		return errors.Join(err, next.release())
	}

	err = e.run(e.copyToNewStart, device.Arguments{
		Buffers: []*device.Buffer{e.bufs.start, e.bufs.end, e.bufs.rows, newStart, next.rows},
	})
	err = errors.Join(err, newStart.Release())
	if err != nil {
		return errors.Join(err, next.release())
	}

	if err := errors.Join(e.bufs.rows.Release(), e.bufs.scratch.Release()); err != nil {
		return errors.Join(err, next.release())
	}
	e.bufs.rows, e.bufs.scratch = next.rows, next.scratch
	e.trackPeak()

	return nil
}

func (e *Accelerated) lows() []uint32 {
	start := e.bufs.start.Contents()
	end := e.bufs.end.Contents()
	rows := e.bufs.rows.Contents()

	lows := make([]uint32, e.n)
	for i := range e.n {
		lows[i] = lowOf(start, end, rows, i, e.n)
	}
	return lows
}

// Close releases every device buffer exactly once.
func (e *Accelerated) Close() error {
	return e.bufs.release()
}
