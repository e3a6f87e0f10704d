package loader

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phreduce/testutil"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      [][]uint32
		cancelled uint64
	}{
		{"basic", "3\n\n0\n0 1\n", [][]uint32{nil, {0}, {0, 1}}, 0},
		{"unsorted", "3\n\n0\n1 0\n", [][]uint32{nil, {0}, {0, 1}}, 0},
		{"duplicates cancel", "3\n\n0 0 0\n1 1\n", [][]uint32{nil, {0}, nil}, 4},
		{"missing trailing columns", "3\n\n0\n", [][]uint32{nil, {0}, nil}, 0},
		{"trailing blank lines", "2\n\n0\n\n  \n\n", [][]uint32{nil, {0}}, 0},
		{"no trailing newline", "2\n\n0", [][]uint32{nil, {0}}, 0},
		{"tabs and crlf", "2\r\n\r\n0\t\r\n", [][]uint32{nil, {0}}, 0},
		{"zero columns", "0\n", [][]uint32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Columns)
			assert.Equal(t, tt.cancelled, m.Cancelled)
		})
	}
}

func TestParse_FormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"empty input", "", 1},
		{"bad header", "three\n", 1},
		{"negative header", "-3\n", 1},
		{"bad token", "2\n\n0 x\n", 3},
		{"row out of range", "2\n\n2\n", 3},
		{"too many columns", "1\n\n0\n", 3},
		{"content after blank", "1\n\n\n5\n", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			var fe *FormatError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tt.line, fe.Line)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestParse_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Parse(io.MultiReader(strings.NewReader("2\n\n"), iotest.ErrReader(boom)))

	assert.ErrorIs(t, err, boom)
	var fe *FormatError
	assert.False(t, errors.As(err, &fe))
}

func TestParse_ReserveBeforeColumns(t *testing.T) {
	limit := errors.New("limit")

	var got uint32
	m, err := Parse(strings.NewReader("4000000000\n"), WithReserve(func(columns uint32) error {
		got = columns
		return limit
	}))

	assert.Nil(t, m)
	assert.ErrorIs(t, err, limit)
	assert.Equal(t, uint32(4000000000), got)
	var fe *FormatError
	assert.False(t, errors.As(err, &fe))
}

func TestParse_ReserveNotCalledOnBadHeader(t *testing.T) {
	called := false
	_, err := Parse(strings.NewReader("x\n"), WithReserve(func(uint32) error {
		called = true
		return nil
	}))

	assert.ErrorIs(t, err, ErrFormat)
	assert.False(t, called)
}

func TestParse_PadsFromHeaderAfterReading(t *testing.T) {
	var reserved uint32
	m, err := Parse(strings.NewReader("200000\n\n0\n"), WithReserve(func(columns uint32) error {
		reserved = columns
		return nil
	}))
	require.NoError(t, err)

	assert.Equal(t, uint32(200000), reserved)
	require.Len(t, m.Columns, 200000)
	assert.Equal(t, []uint32{0}, m.Columns[1])
	assert.Nil(t, m.Columns[199999])
	assert.Equal(t, uint64(1), m.Entries)
}

func TestLoad_Compressed(t *testing.T) {
	rng := testutil.NewRNG(1)
	cols := rng.SparseMatrix(40, 0.1)

	var plain bytes.Buffer
	require.NoError(t, testutil.WriteMatrix(&plain, cols))

	for _, c := range []Compression{None, Zstd, Gzip, LZ4} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := Compress(&buf, c)
			require.NoError(t, err)
			_, err = w.Write(plain.Bytes())
			require.NoError(t, err)
			require.NoError(t, w.Close())

			rc, got, err := Decompress(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, c, got)
			require.NoError(t, rc.Close())

			m, err := Load(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			for i := range cols {
				assert.Equal(t, cols[i], m.Columns[i], "column %d", i)
			}
		})
	}
}

func TestCompressionFromName(t *testing.T) {
	assert.Equal(t, Zstd, CompressionFromName("pairs.txt.zst"))
	assert.Equal(t, Gzip, CompressionFromName("pairs.GZ"))
	assert.Equal(t, LZ4, CompressionFromName("out.lz4"))
	assert.Equal(t, None, CompressionFromName("out.txt"))
}
