package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseMatrix(t *testing.T) {
	rng := NewRNG(4711)

	cols := rng.SparseMatrix(50, 0.1)

	require.Len(t, cols, 50)
	for _, col := range cols {
		for k, v := range col {
			assert.Less(t, v, uint32(50))
			if k > 0 {
				assert.Less(t, col[k-1], v)
			}
		}
	}
}

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(42)
	a := rng.SparseMatrix(20, 0.2)
	rng.Reset()
	b := rng.SparseMatrix(20, 0.2)

	assert.Equal(t, a, b)
	assert.Equal(t, int64(42), rng.Seed())
}

func TestBoundaryMatrix(t *testing.T) {
	rng := NewRNG(7)

	cols := rng.BoundaryMatrix(8, 3, 0.7)

	require.GreaterOrEqual(t, len(cols), 8)
	for j, col := range cols {
		for _, face := range col {
			// Faces precede their cofaces.
			assert.Less(t, face, uint32(j))
		}
		// The boundary of a boundary vanishes over GF(2).
		var acc []uint32
		for _, face := range col {
			acc = xor(acc, cols[face])
		}
		assert.Empty(t, acc, "column %d", j)
	}
}

func TestWriteMatrix(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteMatrix(&buf, [][]uint32{{}, {0}, {0, 1}}))

	assert.Equal(t, "3\n\n0\n0 1\n", buf.String())
}

func TestStandardLows(t *testing.T) {
	t.Run("chain", func(t *testing.T) {
		assert.Equal(t, []uint32{3, 0, 1}, StandardLows([][]uint32{{}, {0}, {0, 1}}))
	})

	t.Run("duplicate", func(t *testing.T) {
		assert.Equal(t, []uint32{3, 0, 3}, StandardLows([][]uint32{{}, {0}, {0}}))
	})

	t.Run("triangle", func(t *testing.T) {
		lows := StandardLows(TriangleBoundary())
		assert.Equal(t, []uint32{7, 7, 7, 1, 2, 7, 5}, lows)
	})
}
