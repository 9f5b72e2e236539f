// Package storage persists the text behind vector ids.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/hybridvdb/internal/models"
)

// ErrNotFound is returned when a document id is unknown.
var ErrNotFound = errors.New("document not found")

// Storage defines document persistence operations.
type Storage interface {
	// PutDocuments inserts or replaces documents by id.
	PutDocuments(ctx context.Context, docs []*models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// GetDocuments returns the known documents among ids, keyed by id.
	GetDocuments(ctx context.Context, ids []string) (map[string]*models.Document, error)
	IDsBySource(ctx context.Context, source string) ([]string, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)

	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
