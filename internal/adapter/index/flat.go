package index

import (
	"fmt"
	"math"
	"sort"

	"assessrag/internal/domain"
	"assessrag/internal/port"
)

var _ port.VectorIndex = (*FlatIndex)(nil)

// FlatIndex is an exact L2 nearest-neighbour index. Every search scans all
// vectors, so recall is always 1. Each vector is stored next to the ID of the
// chunk it was built from.
//
// A FlatIndex is never modified after Build returns and is safe for
// concurrent searches.
type FlatIndex struct {
	dim  int
	ids  []string
	data []float32 // row-major, len(ids)*dim
}

// Build constructs an index over vectors in one pass. ids[i] names the chunk
// that vectors[i] embeds.
func Build(ids []string, vectors [][]float32) (*FlatIndex, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: cannot build an index from zero vectors", domain.ErrInvalidArgument)
	}
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%w: %d ids for %d vectors", domain.ErrInvalidArgument, len(ids), len(vectors))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length vector at position 0", domain.ErrDimensionMismatch)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has length %d, expected %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}

	return &FlatIndex{
		dim:  dim,
		ids:  append([]string(nil), ids...),
		data: data,
	}, nil
}

// Search returns up to k hits ordered by ascending Euclidean distance, ties
// broken by position. k larger than the index is clamped.
func (x *FlatIndex) Search(query []float32, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has length %d, index expects %d", domain.ErrDimensionMismatch, len(query), x.dim)
	}

	n := len(x.ids)
	hits := make([]domain.Hit, n)
	for pos := 0; pos < n; pos++ {
		hits[pos] = domain.Hit{
			Position: pos,
			Distance: l2(query, x.data[pos*x.dim:(pos+1)*x.dim]),
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Position < hits[j].Position
	})

	if k > n {
		k = n
	}
	return hits[:k], nil
}

func (x *FlatIndex) Len() int {
	return len(x.ids)
}

func (x *FlatIndex) Dimension() int {
	return x.dim
}

// ChunkID returns the chunk ID stored for pos.
func (x *FlatIndex) ChunkID(pos int) (string, bool) {
	if pos < 0 || pos >= len(x.ids) {
		return "", false
	}
	return x.ids[pos], true
}

// Vector returns a copy of the vector stored at pos.
func (x *FlatIndex) Vector(pos int) ([]float32, bool) {
	if pos < 0 || pos >= len(x.ids) {
		return nil, false
	}
	return append([]float32(nil), x.data[pos*x.dim:(pos+1)*x.dim]...), true
}

// l2 computes the Euclidean distance between two equal-length vectors.
func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
