// Package column implements the sparse column store of a square boundary
// matrix over GF(2).
//
// Every column is a strictly increasing run of row indices inside a shared
// arena (see internal/arena). Column i owns the slot [start[i], start[i+1]);
// the last column owns everything up to the end of the arena. The part of a
// slot past end[i] is slack that merges can grow into.
//
// The package also exports the slice-level primitives (SymmetricDifference,
// Demand, PlanWiden, TwistRanges) so the accelerator engine can run the same
// arithmetic over device buffers.
package column
