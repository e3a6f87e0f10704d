package device

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// CommandQueue creates command buffers for a device.
type CommandQueue struct {
	device *Device
}

// NewCommandBuffer creates an empty command buffer.
func (q *CommandQueue) NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{device: q.device}
}

type dispatch struct {
	pipeline *Pipeline
	grid     uint32
	args     Arguments
}

// CommandBuffer records dispatches and executes them in order on Commit.
type CommandBuffer struct {
	device     *Device
	dispatches []dispatch

	once sync.Once
	done chan struct{}
	err  error
}

// Dispatch encodes a kernel over grid positions [0, grid).
func (cb *CommandBuffer) Dispatch(p *Pipeline, grid uint32, args Arguments) {
	cb.dispatches = append(cb.dispatches, dispatch{pipeline: p, grid: grid, args: args})
}

// Commit starts executing the encoded dispatches. Dispatches run one after
// another; threadgroups of the same dispatch run concurrently.
func (cb *CommandBuffer) Commit() {
	cb.once.Do(func() {
		cb.done = make(chan struct{})
		go func() {
			defer close(cb.done)
			for _, d := range cb.dispatches {
				if err := cb.device.run(d); err != nil {
					cb.err = err
					return
				}
			}
		}()
	})
}

// WaitUntilCompleted blocks until the command buffer has executed and returns
// the first execution error.
func (cb *CommandBuffer) WaitUntilCompleted() error {
	if cb.done == nil {
		return ErrNotCommitted
	}
	<-cb.done
	return cb.err
}

func (d *Device) run(disp dispatch) error {
	if d.closed.Load() {
		return ErrClosed
	}
	for _, b := range disp.args.Buffers {
		if b.Released() {
			return fmt.Errorf("%w: bound to %s", ErrReleased, disp.pipeline.name)
		}
	}

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.threadgroups)

	size := d.threadgroupLen
	kernel := disp.pipeline.kernel
	args := &disp.args

	for lo := uint32(0); lo < disp.grid; {
		hi := disp.grid
		if disp.grid-lo > size {
			hi = lo + size
		}

		from, to := lo, hi
		g.Go(func() error {
			if err := d.rc.AcquireWorker(ctx); err != nil {
				return err
			}
			defer d.rc.ReleaseWorker()

			for gid := from; gid < to; gid++ {
				kernel(gid, args)
			}
			return nil
		})

		lo = hi
	}

	return g.Wait()
}
