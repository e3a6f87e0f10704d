package device

import (
	"slices"
	"sync"
)

// Arguments are the values bound to a dispatch.
type Arguments struct {
	Buffers   []*Buffer
	Constants []uint32
}

// Kernel runs one grid position. Kernels must not assume any ordering
// between positions of the same dispatch.
type Kernel func(gid uint32, args *Arguments)

// Library maps kernel names to kernels.
type Library struct {
	mu      sync.RWMutex
	kernels map[string]Kernel
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{kernels: make(map[string]Kernel)}
}

// Register adds or replaces a kernel.
func (l *Library) Register(name string, k Kernel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.kernels[name] = k
}

// Lookup returns the kernel registered under name.
func (l *Library) Lookup(name string) (Kernel, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	k, ok := l.kernels[name]
	return k, ok
}

// Names returns the sorted kernel names.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.kernels))
	for name := range l.kernels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Pipeline is a compiled kernel.
type Pipeline struct {
	name   string
	kernel Kernel
}

// Name returns the kernel name.
func (p *Pipeline) Name() string {
	return p.name
}
