package device

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/hupe1980/phreduce/resource"
)

// Device is a software compute device.
type Device struct {
	profile        Profile
	threadgroups   int
	threadgroupLen uint32
	rc             *resource.Controller
	library        *Library

	liveBuffers atomic.Int64
	closed      atomic.Bool
}

// Option configures a Device.
type Option func(*Device)

// WithProfile forces a profile regardless of detection.
func WithProfile(p Profile) Option {
	return func(d *Device) {
		d.profile = p
		d.threadgroupLen = p.ThreadgroupSize()
	}
}

// WithThreadgroups bounds the number of concurrently running threadgroups.
func WithThreadgroups(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.threadgroups = n
		}
	}
}

// WithThreadgroupSize sets the number of grid positions per threadgroup.
func WithThreadgroupSize(n uint32) Option {
	return func(d *Device) {
		if n > 0 {
			d.threadgroupLen = n
		}
	}
}

// WithResourceController charges buffers and threadgroups to rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(d *Device) {
		d.rc = rc
	}
}

// New creates a device that runs kernels from lib. It returns
// ErrUnavailable when the device is disabled by PHREDUCE_DEVICE.
func New(lib *Library, opts ...Option) (*Device, error) {
	if Disabled() {
		return nil, fmt.Errorf("%w: disabled by %s", ErrUnavailable, EnvVar)
	}
	if lib == nil {
		return nil, fmt.Errorf("%w: no kernel library", ErrUnavailable)
	}

	d := &Device{
		profile:        ActiveProfile(),
		threadgroupLen: ActiveProfile().ThreadgroupSize(),
		library:        lib,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.threadgroups == 0 {
		d.threadgroups = d.profile.Threadgroups(runtime.GOMAXPROCS(0))
	}

	return d, nil
}

// Name returns a human-readable device name.
func (d *Device) Name() string {
	return fmt.Sprintf("cpu-%s/%d", d.profile, d.threadgroups)
}

// Profile returns the device profile.
func (d *Device) Profile() Profile {
	return d.profile
}

// Threadgroups returns the maximum number of concurrently running threadgroups.
func (d *Device) Threadgroups() int {
	return d.threadgroups
}

// ThreadgroupSize returns the number of grid positions per threadgroup.
func (d *Device) ThreadgroupSize() uint32 {
	return d.threadgroupLen
}

// LiveBuffers returns the number of buffers created and not yet released.
func (d *Device) LiveBuffers() int64 {
	return d.liveBuffers.Load()
}

// NewBuffer creates a zeroed buffer of length uint32 values.
func (d *Device) NewBuffer(length uint32) (*Buffer, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}

	bytes := int64(length) * 4
	if err := d.rc.AcquireMemory(bytes); err != nil {
		return nil, err
	}

	d.liveBuffers.Add(1)
	return &Buffer{
		device: d,
		data:   make([]uint32, length),
		bytes:  bytes,
	}, nil
}

// NewBufferFrom creates a buffer holding a copy of data.
func (d *Device) NewBufferFrom(data []uint32) (*Buffer, error) {
	length := uint32(len(data)) //nolint:gosec // device buffers are uint32-addressed
	if uint64(len(data)) != uint64(length) {
		return nil, fmt.Errorf("device: buffer of %d values exceeds uint32 addressing", len(data))
	}

	b, err := d.NewBuffer(length)
	if err != nil {
		return nil, err
	}
	copy(b.data, data)
	return b, nil
}

// NewPipeline looks up a kernel by name.
func (d *Device) NewPipeline(name string) (*Pipeline, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}

	k, ok := d.library.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrUnavailable, ErrKernelNotFound, name)
	}
	return &Pipeline{name: name, kernel: k}, nil
}

// NewCommandQueue creates a command queue on the device.
func (d *Device) NewCommandQueue() (*CommandQueue, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	return &CommandQueue{device: d}, nil
}

// Close marks the device closed. Buffers must be released by their owners.
func (d *Device) Close() error {
	d.closed.Store(true)
	return nil
}
