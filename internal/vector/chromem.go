package vector

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

const chromemCollection = "vectors"

// ChromemIndex stores vectors in a chromem-go collection and searches it with
// chromem's concurrent cosine scan. chromem keys documents by id, so adding an
// existing id replaces it. Ties are returned in chromem's order.
type ChromemIndex struct {
	dimensions int
	db         *chromem.DB
	col        *chromem.Collection
	mu         sync.RWMutex
}

// NewChromemIndex creates an empty in-memory chromem collection.
func NewChromemIndex(dimensions int) (*ChromemIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	db := chromem.NewDB()
	// Embeddings are always supplied, so no embedding func is configured.
	col, err := db.CreateCollection(chromemCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create chromem collection: %w", err)
	}
	return &ChromemIndex{dimensions: dimensions, db: db, col: col}, nil
}

// Type returns the index type identifier.
func (c *ChromemIndex) Type() string {
	return string(IndexTypeChromem)
}

// Dimensions returns the vector dimension accepted by the index.
func (c *ChromemIndex) Dimensions() int {
	return c.dimensions
}

// Add inserts vectors with the given IDs.
func (c *ChromemIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if err := validateBatch(ids, vectors, c.dimensions); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(ids))
	for i, id := range ids {
		emb := make([]float32, c.dimensions)
		copy(emb, vectors[i])
		docs[i] = chromem.Document{ID: id, Embedding: emb}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem add: %w", err)
	}
	return nil
}

// Search returns up to k entries by descending cosine similarity.
func (c *ChromemIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != c.dimensions {
		return nil, NewDimensionError(len(query), c.dimensions)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := c.col.Count()
	if k <= 0 || count == 0 {
		return []*Result{}, nil
	}
	// chromem rejects nResults larger than the collection.
	if k > count {
		k = count
	}
	q := make([]float32, len(query))
	copy(q, query)
	hits, err := c.col.QueryEmbedding(ctx, q, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	results := make([]*Result, len(hits))
	for i, h := range hits {
		results[i] = &Result{ID: h.ID, Score: float64(h.Similarity)}
	}
	return results, nil
}

// Remove deletes documents by ID.
func (c *ChromemIndex) Remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("chromem delete: %w", err)
	}
	return nil
}

// Size returns the number of documents in the collection.
func (c *ChromemIndex) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.col.Count()
}

// Close drops the collection.
func (c *ChromemIndex) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.DeleteCollection(chromemCollection)
}
