// Package embedding turns query and document text into vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hyperjump/hybridvdb/internal/vector"
)

const defaultMaxTokens = 256

var errEmbedderClosed = errors.New("embedder is closed")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider names an Embedder implementation.
type Provider string

const (
	ProviderMock Provider = "mock"
	ProviderONNX Provider = "onnx"
)

// Options selects and configures an embedder.
type Options struct {
	Provider   string
	ModelPath  string
	Dimensions int
	MaxTokens  int
	// CacheSize > 0 wraps the embedder in a CachedEmbedder.
	CacheSize int
}

// New creates the embedder named by opts.Provider.
func New(opts Options) (Embedder, error) {
	var (
		emb Embedder
		err error
	)
	switch Provider(opts.Provider) {
	case ProviderMock, "":
		emb = NewMockEmbedder(opts.Dimensions)
	case ProviderONNX:
		emb, err = NewONNXEmbedder(opts.ModelPath, opts.Dimensions, opts.MaxTokens)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: mock, onnx)", opts.Provider)
	}
	if opts.CacheSize > 0 {
		cached, err := NewCachedEmbedder(emb, opts.CacheSize)
		if err != nil {
			_ = emb.Close()
			return nil, err
		}
		return cached, nil
	}
	return emb, nil
}

// checkEmbedding rejects model output of the wrong width or with NaN or Inf
// components.
func checkEmbedding(v []float32, dimensions int) error {
	if len(v) != dimensions {
		return vector.NewDimensionError(len(v), dimensions)
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("embedding component %d is not finite", i)
		}
	}
	return nil
}
