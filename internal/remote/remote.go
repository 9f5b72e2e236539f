// Package remote provides the remote similarity search consulted when the
// local tiers have nothing for a query.
package remote

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Hit is one remote search result. Vector may be nil when the backend does
// not return vectors; Content is the document text when known.
type Hit struct {
	ID      string    `json:"id"`
	Score   float64   `json:"score"`
	Vector  []float32 `json:"-"`
	Content string    `json:"content,omitempty"`
}

// Searcher is a remote top-k similarity search.
type Searcher interface {
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	Name() string
	Close() error
}

// Provider names a Searcher implementation.
type Provider string

const (
	ProviderMock   Provider = "mock"
	ProviderQdrant Provider = "qdrant"
)

// Options selects and configures a Searcher.
type Options struct {
	Provider       string
	Dimensions     int
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	Collection     string
	MaxMessageSize int
	// RateLimit caps requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int
	MockSize  int
	MockSeed  int64
}

// New creates the Searcher named by opts.Provider, rate limited when
// opts.RateLimit is positive.
func New(opts Options, logger *zap.Logger) (Searcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		s   Searcher
		err error
	)
	switch Provider(opts.Provider) {
	case ProviderMock, "":
		s, err = NewMockSearcher(opts.Dimensions, opts.MockSize, opts.MockSeed)
	case ProviderQdrant:
		s, err = NewQdrantSearcher(QdrantConfig{
			Host:           opts.Host,
			Port:           opts.Port,
			APIKey:         opts.APIKey,
			UseTLS:         opts.UseTLS,
			Collection:     opts.Collection,
			MaxMessageSize: opts.MaxMessageSize,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown remote provider: %s (supported: mock, qdrant)", opts.Provider)
	}
	if err != nil {
		return nil, err
	}
	if opts.RateLimit > 0 {
		s = NewRateLimited(s, opts.RateLimit, opts.Burst)
	}
	return s, nil
}

// RateLimited wraps a Searcher with a token-bucket limiter. Search waits for
// a token and gives up when ctx ends first.
type RateLimited struct {
	Searcher
	limiter *rate.Limiter
}

// NewRateLimited allows rps requests per second with the given burst.
func NewRateLimited(s Searcher, rps float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{Searcher: s, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Search waits for the limiter, then delegates.
func (r *RateLimited) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.Searcher.Search(ctx, query, k)
}
