package pool

import (
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned when dispatching to a closed pool.
var ErrClosed = errors.New("pool: closed")

// DefaultBatchSize is the number of columns one task processes.
const DefaultBatchSize = 10_000

// job is one span of a dispatched round.
type job struct {
	lo, hi uint32
	round  *round
}

// round is one Dispatch call: every span runs fn and signals done.
type round struct {
	fn   func(lo, hi uint32)
	done sync.WaitGroup
}

func (j job) run() {
	defer j.round.done.Done()
	j.round.fn(j.lo, j.hi)
}

// WorkerPool runs column batches on a fixed set of goroutines. Dispatch is
// the join barrier between reduction rounds.
type WorkerPool struct {
	workers int
	jobs    chan job

	mu     sync.RWMutex // guards closed against sends on a closed channel
	closed bool
	wg     sync.WaitGroup
}

// NewWorkerPool creates a worker pool with numWorkers goroutines.
// numWorkers <= 0 means runtime.GOMAXPROCS(0).
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	wp := &WorkerPool{
		workers: numWorkers,
		jobs:    make(chan job, numWorkers*2),
	}

	wp.wg.Add(numWorkers)
	for range numWorkers {
		go func() {
			defer wp.wg.Done()
			for j := range wp.jobs {
				j.run()
			}
		}()
	}

	return wp
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// enqueue blocks while the queue is full. Workers keep draining it, so a
// concurrent Close waits for the send instead of racing it.
func (wp *WorkerPool) enqueue(j job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrClosed
	}
	wp.jobs <- j
	return nil
}

// Dispatch calls fn(lo, hi) for consecutive batches of at most batch items
// covering [0, n) and waits for all of them. batch == 0 means
// DefaultBatchSize.
func (wp *WorkerPool) Dispatch(n, batch uint32, fn func(lo, hi uint32)) error {
	if batch == 0 {
		batch = DefaultBatchSize
	}

	r := &round{fn: fn}

	for lo := uint32(0); lo < n; {
		hi := lo + min(batch, n-lo)

		r.done.Add(1)
		if err := wp.enqueue(job{lo: lo, hi: hi, round: r}); err != nil {
			r.done.Done()
			r.done.Wait()
			return err
		}
		lo = hi
	}

	r.done.Wait()
	return nil
}

// Close stops the workers after the queued jobs have run. It is idempotent.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobs)
	wp.mu.Unlock()

	wp.wg.Wait()
}
