// Package phreduce reduces sparse boundary matrices over GF(2) for
// persistent homology.
//
// A boundary matrix is loaded column by column, reduced to a fixed point by
// repeated column addition, and reported as the low of every column: the row
// index of its last surviving nonzero entry. The pairs (i, low(i)) are the
// persistence pairs of the filtration.
//
// # Quick Start
//
//	ctx := context.Background()
//	r, _ := phreduce.Open(ctx, phreduce.Concurrent, "complex.txt")
//	defer r.Close()
//
//	lows, _ := r.Reduce(true) // with the twist (clearing) pre-pass
//	pairs := phreduce.Pairs(lows, true)
//	_ = phreduce.WritePairs(os.Stdout, pairs)
//
// Inputs can be plain text or zstd, gzip or LZ4 compressed; compression is
// detected from the stream. Remote inputs are read through a blob store:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("complexes/"))
//	r, _ := phreduce.Open(ctx, phreduce.Sequential, "torus.txt.zst",
//	    phreduce.WithBlobStore(store))
//
// # Engines
//
//   - Sequential: single goroutine, ascending column order
//   - Concurrent: worker pool with batched rounds and a CAS ownership table
//   - Accelerated: data-parallel kernels on a compute device
//   - Reference: roaring-bitmap columns reduced left to right
//
// All engines return identical lows for the same input, with or without
// twist.
//
// # Input Format
//
// The first line holds the number of columns n. Each of the next n lines
// lists the row indices of one column, separated by whitespace, in any
// order. Indices must be below n; duplicated indices on a line cancel
// pairwise.
//
// # Memory
//
// Row indices live in one arena per matrix that grows only when a pending
// column addition would not fit. Use WithResourceController to cap the
// memory the arena and device buffers may claim.
package phreduce
