// Package loader parses the text boundary-matrix format.
//
// The first line holds the column count n. Each of the next n lines lists the
// row indices of one column, whitespace separated, in any order. Indices are
// sorted on load and duplicates cancel pairwise (GF(2)). Missing trailing
// column lines are empty columns; trailing blank lines are ignored; any other
// line beyond column n is an error, as is any row index >= n.
//
// Inputs compressed with zstd, gzip or LZ4 frames are detected by their magic
// bytes and decompressed transparently.
package loader
