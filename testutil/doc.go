// Package testutil provides testing utilities for phreduce.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random sparse matrices and boundary
// matrices of random simplicial complexes, writing them in the text input
// format, and computing an independent standard reduction to check engines
// against.
//
// # Random Matrices
//
//	rng := testutil.NewRNG(seed)
//	cols := rng.SparseMatrix(200, 0.05)       // arbitrary square matrix
//	cols = rng.BoundaryMatrix(10, 3, 0.6)     // valid for the twist pre-pass
//
// # Oracle
//
//	lows := testutil.StandardLows(cols)
package testutil
