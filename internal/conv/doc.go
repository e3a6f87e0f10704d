// Package conv provides checked integer conversions.
//
// The column store addresses its row-index arena with uint32 offsets, so
// every size computed in int or uint64 (prefix sums during a widen, line
// counts during a load) goes through these helpers before it is narrowed.
//
// For conversions that are provably safe by domain constraints (loop indices
// below n, lengths of an existing slot), use direct casts instead.
package conv
