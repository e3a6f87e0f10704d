package column

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phreduce/testutil"
)

func newStore(t *testing.T, cols [][]uint32, opts ...Option) *Store {
	t.Helper()
	s, err := New(cols, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Free)
	return s
}

func TestNew(t *testing.T) {
	s := newStore(t, [][]uint32{{}, {0}, {0, 1}})

	assert.Equal(t, uint32(3), s.N())
	assert.Equal(t, []uint32{3, 0, 1}, s.Lows())
	assert.Equal(t, uint32(2), s.Len(2))
	assert.Equal(t, uint32(2), s.Capacity(2))
	assert.Equal(t, uint32(0), s.Capacity(0))
	assert.Equal(t, uint64(3), s.Entries())
	assert.Equal(t, []uint32{0, 1}, s.Column(2))
	require.NoError(t, s.Validate())
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cols [][]uint32
		opts []Option
		want error
	}{
		{"unsorted", [][]uint32{{1, 0}, {}}, nil, ErrInvalidColumn},
		{"duplicate", [][]uint32{{0, 0}, {}}, nil, ErrInvalidColumn},
		{"row out of range", [][]uint32{{2}, {}}, nil, ErrInvalidColumn},
		{"coefficient", [][]uint32{{}}, []Option{WithGrowthCoefficient(1)}, ErrInvalidCoefficient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMerge(t *testing.T) {
	s := newStore(t, [][]uint32{{}, {0}, {0, 1}, {0, 1}})
	require.NoError(t, s.Widen(WidenUniform, nil))

	require.NoError(t, s.Merge(3, 2))
	assert.Empty(t, s.Column(3))
	assert.Equal(t, uint32(4), s.Low(3))

	require.NoError(t, s.Merge(3, 1))
	assert.Equal(t, []uint32{0}, s.Column(3))

	// Empty source is a no-op.
	require.NoError(t, s.Merge(3, 0))
	assert.Equal(t, []uint32{0}, s.Column(3))
	require.NoError(t, s.Validate())
}

func TestMerge_SelfInverse(t *testing.T) {
	rng := testutil.NewRNG(11)
	cols := rng.SparseMatrix(40, 0.2)
	s := newStore(t, cols)
	require.NoError(t, s.Widen(WidenUniform, nil))

	for target := uint32(1); target < s.N(); target++ {
		source := target - 1
		before := append([]uint32(nil), s.Column(target)...)

		if !s.HasCapacity(target, uint64(s.Len(target))+uint64(s.Len(source))) {
			continue
		}
		require.NoError(t, s.Merge(target, source))
		require.NoError(t, s.Merge(target, source))

		assert.Equal(t, before, append([]uint32(nil), s.Column(target)...), "column %d", target)
	}
	require.NoError(t, s.Validate())
}

func TestMerge_CapacityExceeded(t *testing.T) {
	s := newStore(t, [][]uint32{{}, {0}, {1}})

	err := s.Merge(2, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	// Target untouched.
	assert.Equal(t, []uint32{1}, s.Column(2))
}

func TestTwist(t *testing.T) {
	s := newStore(t, testutil.TriangleBoundary())

	cleared := s.Twist()

	// Lows 1 (col 3), 2 (col 4) and 5 (col 6) are cleared; 1 and 2 were empty.
	assert.Equal(t, uint(1), cleared.Count())
	assert.True(t, cleared.Test(5))
	assert.Empty(t, s.Column(5))
	assert.Equal(t, []uint32{0, 1}, s.Column(3))
	require.NoError(t, s.Validate())
}

func TestDemand(t *testing.T) {
	assert.Equal(t, uint64(2), Demand(1, 1))
	assert.Equal(t, uint64(6), Demand(3, 2))
	assert.Equal(t, uint64(10), Demand(2, 10))
}

func TestSymmetricDifference(t *testing.T) {
	dst := make([]uint32, 4)

	k, ok := SymmetricDifference(dst, []uint32{0, 2, 5}, []uint32{2, 3})
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 3, 5}, dst[:k])

	_, ok = SymmetricDifference(dst[:2], []uint32{0, 2, 5}, []uint32{2, 3})
	assert.False(t, ok)

	_, ok = SymmetricDifference(dst[:1], []uint32{4}, []uint32{1})
	assert.False(t, ok)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("uniform")
	require.NoError(t, err)
	assert.Equal(t, WidenUniform, p)
	assert.Equal(t, "uniform", p.String())

	p, err = ParsePolicy("demand")
	require.NoError(t, err)
	assert.Equal(t, WidenDemand, p)

	_, err = ParsePolicy("double")
	assert.Error(t, err)
}
