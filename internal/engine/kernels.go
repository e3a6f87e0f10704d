package engine

import (
	"sync/atomic"

	"github.com/hupe1980/phreduce/internal/column"
	"github.com/hupe1980/phreduce/internal/device"
)

// Kernel names of the accelerated engine.
const (
	KernelCountInverseLow = "count_inverse_low"
	KernelCountToAdd      = "count_to_add"
	KernelCopyToNewStart  = "copy_to_new_start"
	KernelAddColumns      = "add_columns"
	KernelRunTwist        = "run_twist"
)

// Flag slots of the flags buffer.
const (
	flagIsOver = iota
	flagNeedWiden
	flagOverflow
	flagCleared
	flagCount
)

// Kernels returns a library holding every kernel the accelerated engine
// needs.
func Kernels() *device.Library {
	lib := device.NewLibrary()
	lib.Register(KernelCountInverseLow, countInverseLow)
	lib.Register(KernelCountToAdd, countToAdd)
	lib.Register(KernelCopyToNewStart, copyToNewStart)
	lib.Register(KernelAddColumns, addColumns)
	lib.Register(KernelRunTwist, runTwist)
	return lib
}

func lowOf(start, end, rows []uint32, i, n uint32) uint32 {
	if start[i] == end[i] {
		return n
	}
	return rows[end[i]-1]
}

func slotEnd(start []uint32, total, i uint32) uint32 {
	if int(i)+1 < len(start) {
		return start[i+1]
	}
	return total
}

// countInverseLow: buffers [start, end, rows, inverseLow], constants [n].
func countInverseLow(gid uint32, args *device.Arguments) {
	n := args.Constants[0]
	start := args.Buffers[0].Contents()
	end := args.Buffers[1].Contents()
	rows := args.Buffers[2].Contents()
	inverseLow := args.Buffers[3].Contents()

	low := lowOf(start, end, rows, gid, n)
	if low == n {
		return
	}
	slot := &inverseLow[low]
	for {
		cur := atomic.LoadUint32(slot)
		if cur <= gid || atomic.CompareAndSwapUint32(slot, cur, gid) {
			return
		}
	}
}

// countToAdd: buffers [start, end, rows, inverseLow, toAdd, flags], constants [n].
func countToAdd(gid uint32, args *device.Arguments) {
	n := args.Constants[0]
	start := args.Buffers[0].Contents()
	end := args.Buffers[1].Contents()
	rows := args.Buffers[2].Contents()
	inverseLow := args.Buffers[3].Contents()
	toAdd := args.Buffers[4].Contents()
	flags := args.Buffers[5].Contents()

	low := lowOf(start, end, rows, gid, n)
	if low == n {
		return
	}
	owner := atomic.LoadUint32(&inverseLow[low])
	if owner == gid {
		return
	}

	toAdd[gid] = owner
	atomic.StoreUint32(&flags[flagIsOver], 0)

	total := uint32(len(rows)) //nolint:gosec // device buffers are uint32-addressed
	capacity := slotEnd(start, total, gid) - start[gid]
	if column.Demand(end[gid]-start[gid], end[owner]-start[owner]) > uint64(capacity) {
		atomic.StoreUint32(&flags[flagNeedWiden], 1)
	}
}

// copyToNewStart: buffers [start, end, rows, newStart, newRows].
func copyToNewStart(gid uint32, args *device.Arguments) {
	start := args.Buffers[0].Contents()
	end := args.Buffers[1].Contents()
	rows := args.Buffers[2].Contents()
	newStart := args.Buffers[3].Contents()
	newRows := args.Buffers[4].Contents()

	length := end[gid] - start[gid]
	dst := newStart[gid]
	copy(newRows[dst:dst+length], rows[start[gid]:end[gid]])

	start[gid] = dst
	end[gid] = dst + length
}

// addColumns: buffers [start, end, rows, scratch, toAdd, inverseLow, flags], constants [n].
func addColumns(gid uint32, args *device.Arguments) {
	n := args.Constants[0]
	start := args.Buffers[0].Contents()
	end := args.Buffers[1].Contents()
	rows := args.Buffers[2].Contents()
	scratch := args.Buffers[3].Contents()
	toAdd := args.Buffers[4].Contents()
	inverseLow := args.Buffers[5].Contents()
	flags := args.Buffers[6].Contents()

	if src := toAdd[gid]; src != n {
		lo := start[gid]
		hi := slotEnd(start, uint32(len(rows)), gid) //nolint:gosec // uint32-addressed
		k, ok := column.SymmetricDifference(scratch[lo:hi], rows[lo:end[gid]], rows[start[src]:end[src]])
		if ok {
			copy(rows[lo:], scratch[lo:lo+uint32(k)]) //nolint:gosec // k <= hi-lo
			end[gid] = lo + uint32(k)                 //nolint:gosec // k <= hi-lo
		} else {
			atomic.StoreUint32(&flags[flagOverflow], 1)
		}
		toAdd[gid] = n
	}

	atomic.StoreUint32(&inverseLow[gid], n)
}

// runTwist: buffers [start, end, rows, flags], constants [n].
//
// Every non-empty column empties the column indexed by its unreduced low and
// counts it in flags[flagCleared]. Rows are never written, so a column that
// is emptied concurrently still yields the low it had on entry. A target is
// counted once because only the first swap sees it non-empty.
func runTwist(gid uint32, args *device.Arguments) {
	n := args.Constants[0]
	start := args.Buffers[0].Contents()
	end := args.Buffers[1].Contents()
	rows := args.Buffers[2].Contents()
	flags := args.Buffers[3].Contents()

	e := atomic.LoadUint32(&end[gid])
	if e == start[gid] {
		return
	}
	low := rows[e-1]
	if low >= n {
		return
	}

	slot := &end[low]
	for {
		cur := atomic.LoadUint32(slot)
		if cur == start[low] {
			return
		}
		if atomic.CompareAndSwapUint32(slot, cur, start[low]) {
			atomic.AddUint32(&flags[flagCleared], 1)
			return
		}
	}
}
