package phreduce

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phreduce/blobstore"
	"github.com/hupe1980/phreduce/internal/loader"
)

func TestPairs(t *testing.T) {
	result := []uint32{4, 2, 0, 4}

	assert.Equal(t, []Pair{{1, 2}, {2, 0}}, Pairs(result, false))
	assert.Equal(t, []Pair{{2, 0}, {1, 2}}, Pairs(result, true))
	assert.Empty(t, Pairs([]uint32{1}, true))
}

func TestWritePairs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePairs(&buf, []Pair{{1, 0}, {12, 7}}))
	assert.Equal(t, "1 0\n12 7\n", buf.String())
}

func TestWriteResult(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	pairs := []Pair{{3, 1}, {4, 2}}

	for _, name := range []string{"out.txt", "out.txt.zst", "out.txt.gz", "out.txt.lz4"} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, WriteResult(ctx, store, name, pairs))

			blob, err := store.Open(ctx, name)
			require.NoError(t, err)
			defer blob.Close()

			rc, c, err := loader.Decompress(blob)
			require.NoError(t, err)
			defer rc.Close()
			assert.Equal(t, loader.CompressionFromName(name), c)

			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, "3 1\n4 2\n", string(data))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]uint32{3, 0, 1})
	assert.Equal(t, a, Fingerprint([]uint32{3, 0, 1}))
	assert.NotEqual(t, a, Fingerprint([]uint32{3, 0, 3}))

	long := make([]uint32, 5000)
	for i := range long {
		long[i] = uint32(i)
	}
	assert.Equal(t, Fingerprint(long), Fingerprint(append([]uint32(nil), long...)))
}
