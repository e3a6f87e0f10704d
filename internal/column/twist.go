package column

import "github.com/bits-and-blooms/bitset"

// TwistRanges runs the clearing pre-pass over a raw layout: for every column
// i in ascending order with a low, the column indexed by that low is emptied.
// It returns the set of cleared columns.
func TwistRanges(start, end, rows []uint32) *bitset.BitSet {
	n := uint32(len(start)) //nolint:gosec // callers hold at most MaxUint32 columns
	cleared := bitset.New(uint(n))

	for i := range n {
		if start[i] == end[i] {
			continue
		}
		low := rows[end[i]-1]
		if end[low] != start[low] {
			end[low] = start[low]
			cleared.Set(uint(low))
		}
	}

	return cleared
}
