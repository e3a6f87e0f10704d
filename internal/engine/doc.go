// Package engine implements the boundary-matrix reduction.
//
// Every engine runs the same fixed-point loop over a column store:
//
//  1. optional twist (clearing) pre-pass
//  2. ownership claim: the smallest column index with a given low owns it,
//     every other column with that low records its owner in toAdd
//  3. stop when nothing is pending
//  4. widen the arena until every pending merge fits its slot
//  5. merge every pending column with its owner and reset the round state
//
// Columns are only ever added to columns on their right, so all engines
// produce the lows of the standard left-to-right reduction:
//
//   - Sequential: single goroutine, ascending order
//   - Concurrent: batches on a worker pool with a join barrier per round and
//     a CAS ownership table
//   - Accelerated: data-parallel kernels on an internal/device.Device
//   - Reference: roaring-bitmap columns reduced left to right, used as an
//     oracle and exposed as the reference mode
package engine
