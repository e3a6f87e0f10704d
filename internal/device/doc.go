// Package device provides a data-parallel compute device for the accelerated
// reduction engine.
//
// The programming model follows GPU compute APIs: a Device creates shared
// Buffers, a Library maps kernel names to kernel functions, a Pipeline binds
// one kernel, and a CommandQueue hands out CommandBuffers that encode
// dispatches and are committed and waited on by the host. A dispatch covers a
// one-dimensional grid split into threadgroups; threadgroups run on
// goroutines bounded by the device width and by the resource controller's
// worker slots. There is no barrier inside a dispatch.
//
// # Profiles
//
// The device profile is detected from the CPU (golang.org/x/sys/cpu). It is a
// sizing heuristic only: it picks the threadgroup size and, unless
// WithThreadgroups is given, how many threadgroups run at once. Kernels are
// plain Go on every profile. The PHREDUCE_DEVICE environment variable forces
// a profile (generic, neon, sve2, avx2, avx512) or disables the device
// entirely ("none"), in which case New returns ErrUnavailable.
package device
