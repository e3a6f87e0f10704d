package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phreduce"
	"github.com/hupe1980/phreduce/internal/device"
	"github.com/hupe1980/phreduce/internal/loader"
	"github.com/hupe1980/phreduce/testutil"
)

func writeInput(t *testing.T, cols [][]uint32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, testutil.WriteMatrix(f, cols))
	require.NoError(t, f.Close())
	return path
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"too few", []string{"sparse", "in.txt"}},
		{"too many", []string{"sparse", "a", "b", "c"}},
		{"unknown mode", []string{"dense", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr.String(), "usage: phreduce")
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRun_Stdout(t *testing.T) {
	in := writeInput(t, testutil.TriangleBoundary())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-sort", "sparse-twist", in, "-"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "3 1\n4 2\n6 5\n", stdout.String())
}

func TestRun_CompressedOutput(t *testing.T) {
	in := writeInput(t, testutil.TriangleBoundary())
	out := filepath.Join(t.TempDir(), "pairs.txt.zst")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-policy", "uniform", "-workers", "2", "-batch", "2", "sparse-parallel", in, out}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	rc, c, err := loader.Decompress(f)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, loader.Zstd, c)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "3 1\n4 2\n6 5\n", string(data))
}

func TestRun_Verify(t *testing.T) {
	cols := testutil.NewRNG(3).BoundaryMatrix(8, 2, 0.7)
	in := writeInput(t, cols)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-verify", "-log-level", "info", "-log-json", "sparse", in, "-"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stderr.String(), "Engines agree")

	want := phreduce.Pairs(testutil.StandardLows(cols), false)
	var buf bytes.Buffer
	require.NoError(t, phreduce.WritePairs(&buf, want))
	assert.Equal(t, buf.String(), stdout.String())
}

func TestRun_Errors(t *testing.T) {
	in := writeInput(t, [][]uint32{{}, {0}})

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing input", []string{"sparse", filepath.Join(t.TempDir(), "nope.txt"), "-"}, "open"},
		{"bad policy", []string{"-policy", "lazy", "sparse", in, "-"}, "invalid argument"},
		{"bad coef", []string{"-coef", "1", "sparse", in, "-"}, "growth coefficient"},
		{"bad log level", []string{"-log-level", "loud", "sparse", in, "-"}, "log level"},
		{"bad scheme", []string{"sparse", "ftp://host/in.txt", "-"}, "unsupported scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr.String(), tt.msg)
		})
	}
}

func TestRun_Accelerated(t *testing.T) {
	if device.Disabled() {
		t.Skipf("device disabled by %s", device.EnvVar)
	}
	in := writeInput(t, testutil.TriangleBoundary())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-device", "generic", "sparse-accelerated-twist", in, "-"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "3 1\n4 2\n6 5\n", stdout.String())
}
