package column

import (
	"github.com/hupe1980/phreduce/internal/arena"
)

// Plan is the layout produced by PlanWiden.
type Plan struct {
	// Start holds the new start offset of every column.
	Start []uint32
	// Size is the new arena length.
	Size uint32
}

// PlanWiden computes new column starts for a repack. start and end describe
// the current layout inside an arena of length total. toAdd holds the pending
// merge source of every column, n meaning none; it may be nil.
func PlanWiden(policy WidenPolicy, coef uint32, start, end []uint32, total uint32, toAdd []uint32) (Plan, error) {
	n := uint32(len(start)) //nolint:gosec // callers hold at most MaxUint32 columns
	newStart := make([]uint32, n)

	var cur uint64
	for i := range n {
		newStart[i] = uint32(cur) //nolint:gosec // checked below before the next column

		length := end[i] - start[i]

		var slot uint64
		switch policy {
		case WidenUniform:
			slot = uint64(coef) * uint64(slotOf(start, total, i))
		default:
			if toAdd != nil && toAdd[i] != n {
				src := toAdd[i]
				slot = Demand(length, end[src]-start[src])
			} else {
				slot = uint64(length) + uint64(coef)*uint64(length)
			}
		}

		cur += slot
		if cur > arena.MaxSize {
			return Plan{}, ErrArenaOverflow
		}
	}

	return Plan{Start: newStart, Size: uint32(cur)}, nil
}

func slotOf(start []uint32, total, i uint32) uint32 {
	if int(i)+1 < len(start) {
		return start[i+1] - start[i]
	}
	return total - start[i]
}
