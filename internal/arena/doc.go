// Package arena provides the flat row-index buffer shared by all columns of a
// boundary matrix.
//
// An Arena is a pair of equally sized []uint32 buffers: the primary buffer
// holding every column's sorted row indices, and a scratch mirror that merges
// write into before committing to the primary buffer. Columns address the
// arena through uint32 offsets, so the total size is capped at math.MaxUint32.
//
// # Memory Accounting
//
// Both buffers are charged to an optional MemoryAcquirer before allocation and
// released exactly once by Free. Growing an arena means reserving a successor,
// copying into it and freeing the predecessor, so the peak usage during a
// repack is old plus new.
package arena
