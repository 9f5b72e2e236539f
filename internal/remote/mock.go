package remote

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/hyperjump/hybridvdb/internal/vector"
	"github.com/hyperjump/hybridvdb/pkg/utils"
)

// MockSearcher serves a fixed corpus of random vectors ("doc_0".."doc_{n-1}")
// drawn from a seeded standard normal, searched by brute-force cosine.
type MockSearcher struct {
	dimensions int
	ids        []string
	contents   []string
	vectors    [][]float32
}

// NewMockSearcher builds a corpus of size vectors of the given dimension.
func NewMockSearcher(dimensions, size int, seed int64) (*MockSearcher, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if size < 0 {
		return nil, fmt.Errorf("mock corpus size must not be negative")
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	m := &MockSearcher{
		dimensions: dimensions,
		ids:        make([]string, size),
		contents:   make([]string, size),
		vectors:    make([][]float32, size),
	}
	for i := 0; i < size; i++ {
		v := make([]float32, dimensions)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		m.ids[i] = fmt.Sprintf("doc_%d", i)
		m.contents[i] = fmt.Sprintf("Mock document %d", i)
		m.vectors[i] = v
	}
	return m, nil
}

// Search returns up to k corpus entries by descending cosine similarity, with vectors.
func (m *MockSearcher) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != m.dimensions {
		return nil, vector.NewDimensionError(len(query), m.dimensions)
	}
	if k <= 0 || len(m.ids) == 0 {
		return []Hit{}, nil
	}
	order := make([]int, len(m.ids))
	scores := make([]float64, len(m.ids))
	for i, v := range m.vectors {
		order[i] = i
		scores[i] = vector.Cosine(query, v)
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if k > len(order) {
		k = len(order)
	}
	hits := make([]Hit, k)
	for i, idx := range order[:k] {
		hits[i] = Hit{
			ID:      m.ids[idx],
			Score:   scores[idx],
			Vector:  utils.CloneVector(m.vectors[idx]),
			Content: m.contents[idx],
		}
	}
	return hits, nil
}

// Vector returns a copy of the corpus vector for id, for tests and demos.
func (m *MockSearcher) Vector(id string) ([]float32, bool) {
	for i, existing := range m.ids {
		if existing == id {
			return utils.CloneVector(m.vectors[i]), true
		}
	}
	return nil, false
}

// Name identifies the backend.
func (m *MockSearcher) Name() string { return string(ProviderMock) }

// Close is a no-op.
func (m *MockSearcher) Close() error { return nil }
