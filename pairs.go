package phreduce

import (
	"bufio"
	"context"
	"errors"
	"io"
	"slices"
	"strconv"

	"github.com/hupe1980/phreduce/blobstore"
	"github.com/hupe1980/phreduce/internal/hash"
	"github.com/hupe1980/phreduce/internal/loader"
	"github.com/hupe1980/phreduce/resource"
)

// Pair is a column together with its low after reduction.
type Pair struct {
	Column uint32
	Low    uint32
}

// Pairs returns (i, result[i]) for every non-empty column of a Reduce
// result. With sorted, pairs are ordered by birth (the low).
func Pairs(result []uint32, sorted bool) []Pair {
	n := uint32(len(result)) //nolint:gosec // at most MaxUint32 columns
	pairs := make([]Pair, 0, countPairs(result))
	for i, low := range result {
		if low != n {
			pairs = append(pairs, Pair{Column: uint32(i), Low: low}) //nolint:gosec // i < n
		}
	}
	if sorted {
		slices.SortFunc(pairs, func(a, b Pair) int {
			if a.Low != b.Low {
				return cmpUint32(a.Low, b.Low)
			}
			return cmpUint32(a.Column, b.Column)
		})
	}
	return pairs
}

func cmpUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// WritePairs writes one "column low" line per pair.
func WritePairs(w io.Writer, pairs []Pair) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	buf := make([]byte, 0, 24)
	for _, p := range pairs {
		buf = strconv.AppendUint(buf[:0], uint64(p.Column), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendUint(buf, uint64(p.Low), 10)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteResult writes pairs to name in store. Names ending in .zst, .gz or
// .lz4 are compressed accordingly. The blob is discarded on failure.
// WithResourceController rate-limits the upload; other options are ignored.
func WriteResult(ctx context.Context, store blobstore.BlobStore, name string, pairs []Pair, optFns ...Option) error {
	o, err := newOptions(optFns)
	if err != nil {
		return err
	}

	blob, err := store.Create(ctx, name)
	if err != nil {
		return &IOError{Op: "create", Name: name, Err: err}
	}

	var w io.Writer = blob
	if o.rc != nil {
		w = resource.NewRateLimitedWriter(ctx, blob, o.rc)
	}

	if err := writeCompressed(w, loader.CompressionFromName(name), pairs); err != nil {
		return &IOError{Op: "write", Name: name, Err: errors.Join(err, blob.Abort())}
	}
	if err := blob.Close(); err != nil {
		return &IOError{Op: "close", Name: name, Err: err}
	}
	return nil
}

func writeCompressed(w io.Writer, c loader.Compression, pairs []Pair) error {
	cw, err := loader.Compress(w, c)
	if err != nil {
		return err
	}
	if err := WritePairs(cw, pairs); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

// Fingerprint hashes a Reduce result. Engines that agree produce equal
// fingerprints.
func Fingerprint(result []uint32) uint64 {
	return hash.Uint32s(result)
}
