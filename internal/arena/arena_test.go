package arena

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAcquirer struct {
	used  int64
	limit int64
}

var errLimit = errors.New("limit")

func (c *countingAcquirer) AcquireMemory(amount int64) error {
	if c.limit > 0 && c.used+amount > c.limit {
		return errLimit
	}
	c.used += amount
	return nil
}

func (c *countingAcquirer) ReleaseMemory(amount int64) {
	c.used -= amount
}

func TestArena_New(t *testing.T) {
	t.Run("zeroed buffers", func(t *testing.T) {
		a, err := New(16)
		require.NoError(t, err)
		defer a.Free()

		assert.Equal(t, uint32(16), a.Len())
		assert.Len(t, a.Rows(), 16)
		assert.Len(t, a.Scratch(), 16)
		for _, v := range a.Rows() {
			assert.Zero(t, v)
		}
	})

	t.Run("empty", func(t *testing.T) {
		a, err := New(0)
		require.NoError(t, err)
		defer a.Free()

		assert.Zero(t, a.Len())
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := New(MaxSize + 1)
		assert.ErrorIs(t, err, ErrOverflow)
	})
}

func TestArena_MemoryAccounting(t *testing.T) {
	acq := &countingAcquirer{}

	a, err := New(10, WithMemoryAcquirer(acq))
	require.NoError(t, err)
	assert.Equal(t, int64(80), acq.used)

	b, err := a.Reserve(20)
	require.NoError(t, err)
	assert.Equal(t, int64(240), acq.used)

	a.Free()
	assert.Equal(t, int64(160), acq.used)

	// Double free is a no-op.
	a.Free()
	assert.Equal(t, int64(160), acq.used)

	stats := b.Stats()
	assert.Equal(t, uint64(2), stats.Reservations)
	assert.Equal(t, uint64(160), stats.BytesReserved)
	assert.Equal(t, uint64(160), stats.PeakBytes)

	b.Free()
	assert.Zero(t, acq.used)
	assert.Zero(t, b.Stats().BytesReserved)
}

func TestArena_ReserveLimit(t *testing.T) {
	acq := &countingAcquirer{limit: 100}

	a, err := New(10, WithMemoryAcquirer(acq))
	require.NoError(t, err)
	defer a.Free()

	_, err = a.Reserve(10)
	assert.ErrorIs(t, err, errLimit)
	assert.Equal(t, int64(80), acq.used)
}

func TestArena_ReserveAfterFree(t *testing.T) {
	a, err := New(4)
	require.NoError(t, err)
	a.Free()

	_, err = a.Reserve(8)
	assert.ErrorIs(t, err, ErrFreed)
}
