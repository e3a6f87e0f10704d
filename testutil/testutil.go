package testutil

import (
	"bufio"
	"io"
	"math/rand"
	"slices"
	"strconv"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// SparseMatrix returns n sorted columns whose entries are drawn independently
// with the given density from [0, n).
func (r *RNG) SparseMatrix(n int, density float64) [][]uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	cols := make([][]uint32, n)
	for i := range cols {
		for row := range n {
			if r.rand.Float64() < density {
				cols[i] = append(cols[i], uint32(row)) //nolint:gosec // row < n
			}
		}
	}
	return cols
}

// BoundaryMatrix returns the boundary matrix of a random simplicial complex on
// the given number of vertices. Every simplex of dimension 1..maxDim whose
// faces are all present is kept with probability p. Simplices are ordered by
// dimension, so every face precedes its cofaces.
func (r *RNG) BoundaryMatrix(vertices, maxDim int, p float64) [][]uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := make(map[string]uint32)
	var cols [][]uint32

	layer := make([][]int, 0, vertices)
	for v := range vertices {
		simplex := []int{v}
		index[key(simplex)] = uint32(len(cols)) //nolint:gosec // small test complexes
		cols = append(cols, nil)
		layer = append(layer, simplex)
	}

	for dim := 1; dim <= maxDim && len(layer) > 0; dim++ {
		var next [][]int
		for _, base := range layer {
			for v := base[len(base)-1] + 1; v < vertices; v++ {
				simplex := append(slices.Clone(base), v)
				faces, ok := faceIndices(index, simplex)
				if !ok || r.rand.Float64() >= p {
					continue
				}
				index[key(simplex)] = uint32(len(cols)) //nolint:gosec // small test complexes
				cols = append(cols, faces)
				next = append(next, simplex)
			}
		}
		layer = next
	}

	return cols
}

func faceIndices(index map[string]uint32, simplex []int) ([]uint32, bool) {
	faces := make([]uint32, 0, len(simplex))
	for skip := range simplex {
		face := make([]int, 0, len(simplex)-1)
		face = append(face, simplex[:skip]...)
		face = append(face, simplex[skip+1:]...)
		idx, ok := index[key(face)]
		if !ok {
			return nil, false
		}
		faces = append(faces, idx)
	}
	slices.Sort(faces)
	return faces, true
}

func key(simplex []int) string {
	b := make([]byte, 0, 4*len(simplex))
	for _, v := range simplex {
		b = strconv.AppendInt(b, int64(v), 10)
		b = append(b, ',')
	}
	return string(b)
}

// TriangleBoundary returns the boundary matrix of a filled triangle:
// vertices 0..2, edges 3={0,1}, 4={0,2}, 5={1,2} and the face 6={3,4,5}.
func TriangleBoundary() [][]uint32 {
	return [][]uint32{{}, {}, {}, {0, 1}, {0, 2}, {1, 2}, {3, 4, 5}}
}

// CloneMatrix returns a deep copy of cols.
func CloneMatrix(cols [][]uint32) [][]uint32 {
	out := make([][]uint32, len(cols))
	for i, c := range cols {
		out[i] = slices.Clone(c)
	}
	return out
}

// WriteMatrix writes cols in the text input format: the column count on the
// first line followed by one line of row indices per column.
func WriteMatrix(w io.Writer, cols [][]uint32) error {
	bw := bufio.NewWriter(w)
	buf := strconv.AppendInt(nil, int64(len(cols)), 10)
	buf = append(buf, '\n')
	if _, err := bw.Write(buf); err != nil {
		return err
	}

	for _, col := range cols {
		buf = buf[:0]
		for k, v := range col {
			if k > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendUint(buf, uint64(v), 10)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// StandardLows computes the lows of the reduced matrix with the textbook
// left-to-right column reduction. It does not modify cols.
func StandardLows(cols [][]uint32) []uint32 {
	n := uint32(len(cols)) //nolint:gosec // test matrices are small
	work := CloneMatrix(cols)
	owner := make(map[uint32]int, len(cols))
	lows := make([]uint32, len(cols))

	for j := range work {
		for len(work[j]) > 0 {
			low := work[j][len(work[j])-1]
			k, ok := owner[low]
			if !ok {
				break
			}
			work[j] = xor(work[j], work[k])
		}
		if len(work[j]) == 0 {
			lows[j] = n
			continue
		}
		low := work[j][len(work[j])-1]
		owner[low] = j
		lows[j] = low
	}

	return lows
}

func xor(a, b []uint32) []uint32 {
	out := make([]uint32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
