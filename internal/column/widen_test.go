package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phreduce/internal/arena"
	"github.com/hupe1980/phreduce/testutil"
)

type acquirer struct{ used int64 }

func (a *acquirer) AcquireMemory(n int64) error { a.used += n; return nil }
func (a *acquirer) ReleaseMemory(n int64)       { a.used -= n }

func TestWiden_Uniform(t *testing.T) {
	s := newStore(t, [][]uint32{{}, {0}, {0, 1}}, WithGrowthCoefficient(3))

	require.NoError(t, s.Widen(WidenUniform, nil))

	assert.Equal(t, uint32(0), s.Capacity(0))
	assert.Equal(t, uint32(3), s.Capacity(1))
	assert.Equal(t, uint32(6), s.Capacity(2))
	assert.Equal(t, []uint32{3, 0, 1}, s.Lows())
	require.NoError(t, s.Validate())

	require.NoError(t, s.Widen(WidenUniform, nil))
	assert.Equal(t, uint32(18), s.Capacity(2))
}

func TestWiden_Demand(t *testing.T) {
	s := newStore(t, [][]uint32{{}, {0}, {0, 1}, {1}})
	toAdd := []uint32{4, 4, 4, 2}

	require.NoError(t, s.Widen(WidenDemand, toAdd))

	// Pending column 3 gets len + max(len(2)-2, len) = 1 + 1.
	assert.Equal(t, uint32(2), s.Capacity(3))
	// Others get len + coef*len.
	assert.Equal(t, uint32(3), s.Capacity(1))
	assert.Equal(t, uint32(6), s.Capacity(2))
	assert.True(t, s.HasCapacity(3, s.Demand(3, 2)))
	require.NoError(t, s.Merge(3, 2))
	assert.Equal(t, []uint32{0}, s.Column(3))
}

func TestWiden_PreservesContent(t *testing.T) {
	rng := testutil.NewRNG(3)
	cols := rng.SparseMatrix(64, 0.1)
	s := newStore(t, cols)

	for _, policy := range []WidenPolicy{WidenDemand, WidenUniform} {
		require.NoError(t, s.Widen(policy, nil))
		require.NoError(t, s.Validate())
		for i := range s.N() {
			assert.Equal(t, cols[i], nilIfEmpty(s.Column(i)), "column %d", i)
		}
	}
}

func TestWiden_MemoryAccounting(t *testing.T) {
	acq := &acquirer{}
	s, err := New([][]uint32{{}, {0}, {0, 1}}, WithMemoryAcquirer(acq))
	require.NoError(t, err)
	assert.Equal(t, int64(3*2*4), acq.used)

	require.NoError(t, s.Widen(WidenUniform, nil))
	assert.Equal(t, int64(6*2*4), acq.used)
	assert.Equal(t, uint64(2), s.ArenaStats().Reservations)

	s.Free()
	assert.Zero(t, acq.used)
}

func TestPlanWiden_Overflow(t *testing.T) {
	start := []uint32{0, arena.MaxSize / 2}
	end := []uint32{arena.MaxSize / 2, arena.MaxSize - 1}

	_, err := PlanWiden(WidenUniform, 2, start, end, arena.MaxSize-1, nil)
	assert.ErrorIs(t, err, ErrArenaOverflow)
}

func nilIfEmpty(v []uint32) []uint32 {
	if len(v) == 0 {
		return nil
	}
	return append([]uint32(nil), v...)
}
