package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolWorkers(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	assert.Equal(t, 2, pool.Workers())
}

func TestWorkerPoolDefaultWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	assert.Positive(t, pool.Workers())
}

func TestWorkerPoolDispatchAfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Close()
	pool.Close() // idempotent

	called := false
	err := pool.Dispatch(10, 2, func(lo, hi uint32) { called = true })
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, called)
}

func TestWorkerPoolDispatchEmptyAfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Close()

	assert.NoError(t, pool.Dispatch(0, 2, func(lo, hi uint32) {}))
}

func TestWorkerPoolDispatchSingleWorker(t *testing.T) {
	pool := NewWorkerPool(1)

	var ran atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- pool.Dispatch(64, 1, func(lo, hi uint32) {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for dispatch")
	}
	pool.Close()

	assert.Equal(t, int32(64), ran.Load())
}

func TestDispatch(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	tests := []struct {
		name  string
		n     uint32
		batch uint32
	}{
		{"empty", 0, 3},
		{"single batch", 5, 10},
		{"exact", 12, 3},
		{"remainder", 13, 3},
		{"more spans than queue", 40, 1},
		{"default batch", 25_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]atomic.Int32, tt.n)
			var mu sync.Mutex
			var batches int

			err := pool.Dispatch(tt.n, tt.batch, func(lo, hi uint32) {
				mu.Lock()
				batches++
				mu.Unlock()
				for i := lo; i < hi; i++ {
					seen[i].Add(1)
				}
			})
			require.NoError(t, err)

			// Join barrier: every item visited exactly once when Dispatch returns.
			for i := range seen {
				assert.Equal(t, int32(1), seen[i].Load(), "item %d", i)
			}

			batch := tt.batch
			if batch == 0 {
				batch = DefaultBatchSize
			}
			assert.Equal(t, int((tt.n+batch-1)/batch), batches)
		})
	}
}
