package phreduce

import (
	"errors"
	"fmt"

	"github.com/hupe1980/phreduce/blobstore"
	"github.com/hupe1980/phreduce/internal/column"
	"github.com/hupe1980/phreduce/internal/device"
	"github.com/hupe1980/phreduce/resource"
)

// WidenPolicy selects how the row-index arena grows.
type WidenPolicy = column.WidenPolicy

const (
	// WidenDemand grows pending columns to their projected size and gives
	// the others proportional slack. It is the default.
	WidenDemand = column.WidenDemand
	// WidenUniform multiplies every slot by the growth coefficient.
	WidenUniform = column.WidenUniform
)

// ParseWidenPolicy parses "demand" or "uniform".
func ParseWidenPolicy(s string) (WidenPolicy, error) {
	p, err := column.ParsePolicy(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return p, nil
}

// DeviceOptions configures the compute device of the accelerated engine.
type DeviceOptions struct {
	// Profile forces a capability profile ("generic", "neon", "sve2",
	// "avx2", "avx512"). Empty means detect, honouring PHREDUCE_DEVICE.
	Profile string
	// Threadgroups bounds concurrently running threadgroups (0 = profile default).
	Threadgroups int
	// ThreadgroupSize is the number of columns per threadgroup (0 = profile default).
	ThreadgroupSize uint32
}

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	policy           WidenPolicy
	coef             uint32
	batchSize        uint32
	workers          int
	rc               *resource.Controller
	store            blobstore.BlobStore
	device           DeviceOptions
	errs             []error
}

// Option configures Open and OpenReader.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		policy:           WidenDemand,
		coef:             column.DefaultGrowthCoefficient,
		store:            blobstore.NewLocalStore(""),
	}
}

func newOptions(optFns []Option) (options, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	if len(o.errs) > 0 {
		return o, errors.Join(o.errs...)
	}
	return o, nil
}

func (o *options) invalid(format string, args ...any) {
	o.errs = append(o.errs, fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...)))
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector. If nil is passed, metrics
// are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithWidenPolicy selects the arena widen policy.
func WithWidenPolicy(p WidenPolicy) Option {
	return func(o *options) {
		switch p {
		case WidenDemand, WidenUniform:
			o.policy = p
		default:
			o.invalid("widen policy %d", int(p))
		}
	}
}

// WithGrowthCoefficient sets the factor by which slots grow on widen.
// Default: 2. Values below 2 cannot grow an empty slot and are rejected.
func WithGrowthCoefficient(coef uint32) Option {
	return func(o *options) {
		if coef < 2 {
			o.invalid("growth coefficient %d < 2", coef)
			return
		}
		o.coef = coef
	}
}

// WithBatchSize sets the number of columns per task of the concurrent engine.
// Default: 10,000.
func WithBatchSize(n uint32) Option {
	return func(o *options) {
		if n == 0 {
			o.invalid("batch size must be positive")
			return
		}
		o.batchSize = n
	}
}

// WithWorkers sets the worker pool size of the concurrent engine.
// Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			o.invalid("workers must be positive, got %d", n)
			return
		}
		o.workers = n
	}
}

// WithResourceController charges the arena, device buffers and device
// threadgroups to rc and rate-limits input reads.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithBlobStore sets the store Open reads from. Default: the local
// filesystem, with names resolved against the working directory.
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		if store == nil {
			o.invalid("nil blob store")
			return
		}
		o.store = store
	}
}

// WithDevice configures the compute device of the accelerated engine.
func WithDevice(d DeviceOptions) Option {
	return func(o *options) {
		if d.Profile != "" {
			if _, ok := device.ParseProfile(d.Profile); !ok {
				o.invalid("device profile %q", d.Profile)
				return
			}
		}
		if d.Threadgroups < 0 {
			o.invalid("threadgroups must not be negative, got %d", d.Threadgroups)
			return
		}
		o.device = d
	}
}

func (o *options) deviceOptions() []device.Option {
	opts := []device.Option{device.WithResourceController(o.rc)}
	if p, ok := device.ParseProfile(o.device.Profile); ok && o.device.Profile != "" {
		opts = append(opts, device.WithProfile(p))
	}
	if o.device.Threadgroups > 0 {
		opts = append(opts, device.WithThreadgroups(o.device.Threadgroups))
	}
	if o.device.ThreadgroupSize > 0 {
		opts = append(opts, device.WithThreadgroupSize(o.device.ThreadgroupSize))
	}
	return opts
}
