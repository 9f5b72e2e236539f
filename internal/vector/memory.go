package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory vector index using brute-force cosine search.
// Entries are kept in insertion order, which also breaks score ties.
type MemoryIndex struct {
	dimensions int
	ids        []string
	vectors    [][]float32
	norms      []float64
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		ids:        make([]string, 0),
		vectors:    make([][]float32, 0),
		norms:      make([]float64, 0),
	}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Dimensions returns the vector dimension accepted by the index.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Add appends vectors with the given IDs. The whole batch is validated first,
// so a failed call leaves the index unchanged.
func (m *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if err := validateBatch(ids, vectors, m.dimensions); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
		m.norms = append(m.norms, L2Norm(vec))
	}
	return nil
}

// Search returns up to k entries by descending cosine similarity.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != m.dimensions {
		return nil, NewDimensionError(len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return []*Result{}, nil
	}
	qNorm := L2Norm(query)
	results := make([]*Result, len(m.ids))
	for i, vec := range m.vectors {
		score := InnerProduct(query, vec) / (qNorm*m.norms[i] + Epsilon)
		results[i] = &Result{ID: m.ids[i], Score: score}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Remove drops every entry whose id is listed.
func (m *MemoryIndex) Remove(ctx context.Context, ids []string) error {
	removeSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		removeSet[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keep := 0
	for i, id := range m.ids {
		if removeSet[id] {
			continue
		}
		m.ids[keep] = id
		m.vectors[keep] = m.vectors[i]
		m.norms[keep] = m.norms[i]
		keep++
	}
	m.truncate(keep)
	return nil
}

// EvictOldest removes the n oldest entries and returns how many were removed.
func (m *MemoryIndex) EvictOldest(n int) int {
	if n <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.ids) {
		n = len(m.ids)
	}
	remaining := len(m.ids) - n
	copy(m.ids, m.ids[n:])
	copy(m.vectors, m.vectors[n:])
	copy(m.norms, m.norms[n:])
	m.truncate(remaining)
	return n
}

// IDs returns the stored ids in insertion order.
func (m *MemoryIndex) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out
}

// truncate shrinks the parallel slices to n, clearing the tail so evicted
// vectors can be collected. Caller holds the write lock.
func (m *MemoryIndex) truncate(n int) {
	for i := n; i < len(m.ids); i++ {
		m.vectors[i] = nil
	}
	m.ids = m.ids[:n]
	m.vectors = m.vectors[:n]
	m.norms = m.norms[:n]
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
