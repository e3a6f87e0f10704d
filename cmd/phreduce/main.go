// Command phreduce reduces a boundary matrix and writes its persistence
// pairs.
//
// Usage:
//
//	phreduce [flags] <mode> <input> <output>
//
// Inputs and outputs are local paths, s3://bucket/key or
// minio://bucket/key. Outputs ending in .zst, .gz or .lz4 are compressed;
// "-" writes to standard output.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/hupe1980/phreduce"
	"github.com/hupe1980/phreduce/blobstore"
	"github.com/hupe1980/phreduce/blobstore/minio"
	"github.com/hupe1980/phreduce/blobstore/s3"
	"github.com/hupe1980/phreduce/resource"
)

var errUsage = errors.New("usage")

type config struct {
	sort     bool
	verify   bool
	policy   string
	coef     uint
	workers  int
	batch    uint
	device   string
	logLevel string
	logJSON  bool
	memLimit int64
	ioLimit  int64

	mode   phreduce.Mode
	input  string
	output string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, "phreduce:", err)
		}
		return 1
	}

	if err := execute(ctx, cfg, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, "phreduce:", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("phreduce", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&cfg.sort, "sort", false, "sort pairs by birth")
	fs.BoolVar(&cfg.verify, "verify", false, "run every engine and compare results")
	fs.StringVar(&cfg.policy, "policy", "demand", "widen policy: demand or uniform")
	fs.UintVar(&cfg.coef, "coef", 2, "slot growth coefficient (>= 2)")
	fs.IntVar(&cfg.workers, "workers", 0, "worker pool size (0 = GOMAXPROCS)")
	fs.UintVar(&cfg.batch, "batch", 10_000, "columns per concurrent task")
	fs.StringVar(&cfg.device, "device", "", "force a device profile: generic, neon, sve2, avx2, avx512")
	fs.StringVar(&cfg.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.logJSON, "log-json", false, "log as JSON")
	fs.Int64Var(&cfg.memLimit, "mem-limit", 0, "column metadata, arena and device memory limit in bytes (0 = unlimited)")
	fs.Int64Var(&cfg.ioLimit, "io-limit", 0, "input and output rate in bytes per second (0 = unlimited)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: phreduce [flags] <mode> <input> <output>")
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, "modes:")
		for _, m := range phreduce.Modes() {
			fmt.Fprint(stderr, " ", m)
		}
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return cfg, errUsage
	}

	mode, err := phreduce.ParseMode(fs.Arg(0))
	if err != nil {
		fs.Usage()
		return cfg, errUsage
	}
	cfg.mode = mode
	cfg.input = fs.Arg(1)
	cfg.output = fs.Arg(2)

	return cfg, nil
}

func (c config) logger(stderr io.Writer) (*phreduce.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.logJSON {
		return phreduce.NewLogger(slog.NewJSONHandler(stderr, opts)), nil
	}
	return phreduce.NewLogger(slog.NewTextHandler(stderr, opts)), nil
}

func (c config) options(logger *phreduce.Logger, store blobstore.BlobStore) ([]phreduce.Option, error) {
	policy, err := phreduce.ParseWidenPolicy(c.policy)
	if err != nil {
		return nil, err
	}
	if c.coef > 1<<32-1 || c.batch > 1<<32-1 {
		return nil, fmt.Errorf("%w: -coef and -batch must fit in 32 bits", phreduce.ErrInvalidArgument)
	}

	opts := []phreduce.Option{
		phreduce.WithLogger(logger),
		phreduce.WithBlobStore(store),
		phreduce.WithWidenPolicy(policy),
		phreduce.WithGrowthCoefficient(uint32(c.coef)),
		phreduce.WithBatchSize(uint32(c.batch)),
		phreduce.WithDevice(phreduce.DeviceOptions{Profile: c.device}),
	}
	if c.workers > 0 {
		opts = append(opts, phreduce.WithWorkers(c.workers))
	}
	if c.memLimit > 0 || c.ioLimit > 0 {
		opts = append(opts, phreduce.WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes:   c.memLimit,
			IOLimitBytesPerSec: c.ioLimit,
		})))
	}
	return opts, nil
}

func execute(ctx context.Context, cfg config, stdout, stderr io.Writer) error {
	logger, err := cfg.logger(stderr)
	if err != nil {
		return err
	}

	inStore, inName, err := openStore(ctx, cfg.input)
	if err != nil {
		return err
	}
	opts, err := cfg.options(logger, inStore)
	if err != nil {
		return err
	}

	lows, err := reduce(ctx, cfg.mode, inName, opts)
	if err != nil {
		return err
	}

	if cfg.verify {
		if err := verify(ctx, cfg.mode, inName, lows, opts, logger); err != nil {
			return err
		}
	}

	pairs := phreduce.Pairs(lows, cfg.sort)
	if cfg.output == "-" {
		return phreduce.WritePairs(stdout, pairs)
	}

	outStore, outName, err := openStore(ctx, cfg.output)
	if err != nil {
		return err
	}
	return phreduce.WriteResult(ctx, outStore, outName, pairs, opts...)
}

func reduce(ctx context.Context, mode phreduce.Mode, name string, opts []phreduce.Option) ([]uint32, error) {
	r, err := phreduce.Open(ctx, mode.Kind, name, opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.Reduce(mode.Twist)
}

// verify reduces the input with every other engine and compares fingerprints.
func verify(ctx context.Context, mode phreduce.Mode, name string, lows []uint32, opts []phreduce.Option, logger *phreduce.Logger) error {
	want := phreduce.Fingerprint(lows)

	var mismatched []string
	for _, m := range phreduce.Modes() {
		if m == mode {
			continue
		}
		got, err := reduce(ctx, m, name, opts)
		if errors.Is(err, phreduce.ErrAcceleratorUnavailable) {
			logger.WarnContext(ctx, "Skipping mode", "mode", m.String(), "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("verify %s: %w", m, err)
		}
		if phreduce.Fingerprint(got) != want {
			mismatched = append(mismatched, m.String())
		}
	}

	if len(mismatched) > 0 {
		return fmt.Errorf("verify: %s disagree with %s", strings.Join(mismatched, ", "), mode)
	}
	logger.InfoContext(ctx, "Engines agree", "fingerprint", want)
	return nil
}

// openStore resolves a location to a blob store and a name within it.
func openStore(ctx context.Context, location string) (blobstore.BlobStore, string, error) {
	loc, err := blobstore.ParseLocation(location)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", phreduce.ErrInvalidArgument, err)
	}

	switch loc.Scheme {
	case "s3":
		store, err := s3.New(ctx, loc.Bucket)
		if err != nil {
			return nil, "", &phreduce.IOError{Op: "connect", Name: location, Err: err}
		}
		return store, loc.Key, nil
	case "minio":
		mcfg, err := minio.ConfigFromEnv(loc.Bucket)
		if err != nil {
			return nil, "", &phreduce.IOError{Op: "connect", Name: location, Err: err}
		}
		store, err := minio.New(mcfg)
		if err != nil {
			return nil, "", &phreduce.IOError{Op: "connect", Name: location, Err: err}
		}
		return store, loc.Key, nil
	default:
		return blobstore.NewLocalStore(""), loc.Key, nil
	}
}
