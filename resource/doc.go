// Package resource governs the memory, compute slots and IO bandwidth used by
// a reduction.
//
// The Controller manages three resource types:
//
//   - Memory: arena and device buffers acquire their bytes before allocating
//     and release them after a swap (non-blocking, fail-fast)
//   - Workers: device threadgroups take a slot while they run
//   - IO: matrix inputs and result uploads pass a token-bucket rate limiter
//
// # Memory
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(int64(newLen) * 4); err != nil {
//	    // ErrMemoryLimitExceeded: the widen cannot proceed
//	}
//	defer rc.ReleaseMemory(int64(newLen) * 4)
//
// # Workers
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// # IO
//
//	r := resource.NewRateLimitedReader(ctx, blobReader, rc)
//	w := resource.NewRateLimitedWriter(ctx, resultBlob, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops. This
// keeps resource limiting optional without nil checks at every call site.
package resource
