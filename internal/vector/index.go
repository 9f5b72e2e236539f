// Package vector provides vector indexes and cosine similarity search.
package vector

import "context"

// Index is an in-memory set of (id, vector) pairs searchable by cosine similarity.
// Entries keep insertion order; ids are not required to be unique.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// Result is a single search hit.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"` // cosine similarity in [-1, 1]
}
