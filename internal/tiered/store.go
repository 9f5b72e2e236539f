// Package tiered implements the hot/permanent/dynamic partitioned vector store.
package tiered

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/vector"
)

// Partition names a store tier.
type Partition string

const (
	PartitionHot       Partition = "hot"
	PartitionPermanent Partition = "permanent"
	PartitionDynamic   Partition = "dynamic"
)

// Options configures a Store.
type Options struct {
	Dimensions int
	// IndexType selects the backend for the permanent and dynamic partitions.
	// The hot partition always uses a MemoryIndex because FIFO eviction needs
	// insertion order.
	IndexType         string
	HotCapacity       int
	PermanentCapacity int
	DynamicCapacity   int
}

// Stats reports partition sizes and capacities.
type Stats struct {
	HotSize           int    `json:"hot_size"`
	PermanentSize     int    `json:"permanent_size"`
	DynamicSize       int    `json:"dynamic_size"`
	HotCapacity       int    `json:"hot_capacity"`
	PermanentCapacity int    `json:"permanent_capacity"`
	DynamicCapacity   int    `json:"dynamic_capacity"`
	IndexType         string `json:"index_type"`
}

// Store holds three vector partitions and merges their search results by score.
// The same id may live in several partitions; Search does not deduplicate.
type Store struct {
	hot       *vector.MemoryIndex
	permanent vector.Index
	dynamic   vector.Index
	opts      Options
	logger    *zap.Logger
}

// Option configures optional Store dependencies.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store with empty partitions.
func New(opts Options, options ...Option) (*Store, error) {
	if opts.HotCapacity <= 0 {
		return nil, fmt.Errorf("hot capacity must be positive")
	}
	hot, err := vector.NewMemoryIndex(opts.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("create hot partition: %w", err)
	}
	permanent, err := vector.NewIndex(opts.IndexType, opts.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("create permanent partition: %w", err)
	}
	dynamic, err := vector.NewIndex(opts.IndexType, opts.Dimensions)
	if err != nil {
		_ = permanent.Close()
		return nil, fmt.Errorf("create dynamic partition: %w", err)
	}
	s := &Store{
		hot:       hot,
		permanent: permanent,
		dynamic:   dynamic,
		opts:      opts,
		logger:    zap.NewNop(),
	}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// AddHot appends to the hot partition, then evicts the oldest entries until
// it is back within capacity.
func (s *Store) AddHot(ctx context.Context, ids []string, vectors [][]float32) error {
	if err := s.hot.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("add hot: %w", err)
	}
	if over := s.hot.Size() - s.opts.HotCapacity; over > 0 {
		evicted := s.hot.EvictOldest(over)
		s.logger.Debug("evicted hot vectors", zap.Int("count", evicted))
	}
	return nil
}

// AddPermanent appends to the permanent partition.
func (s *Store) AddPermanent(ctx context.Context, ids []string, vectors [][]float32) error {
	if err := s.permanent.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("add permanent: %w", err)
	}
	return nil
}

// AddDynamic appends to the dynamic partition.
func (s *Store) AddDynamic(ctx context.Context, ids []string, vectors [][]float32) error {
	if err := s.dynamic.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("add dynamic: %w", err)
	}
	return nil
}

// RemovePermanent drops ids from the permanent partition.
func (s *Store) RemovePermanent(ctx context.Context, ids []string) error {
	if err := s.permanent.Remove(ctx, ids); err != nil {
		return fmt.Errorf("remove permanent: %w", err)
	}
	return nil
}

// Search takes the top k of each partition, concatenates them in
// hot, permanent, dynamic order, and returns the k best by score.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]*vector.Result, error) {
	if k <= 0 {
		return []*vector.Result{}, nil
	}
	partitions := []struct {
		name Partition
		idx  vector.Index
	}{
		{PartitionHot, s.hot},
		{PartitionPermanent, s.permanent},
		{PartitionDynamic, s.dynamic},
	}
	var merged []*vector.Result
	for _, p := range partitions {
		results, err := p.idx.Search(ctx, query, k)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", p.name, err)
		}
		merged = append(merged, results...)
	}
	if merged == nil {
		return []*vector.Result{}, nil
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}

// Compact is reserved for disk-backed partitions; in memory there is nothing to do.
func (s *Store) Compact(ctx context.Context) error {
	return nil
}

// Stats returns partition sizes and configured capacities.
func (s *Store) Stats() Stats {
	return Stats{
		HotSize:           s.hot.Size(),
		PermanentSize:     s.permanent.Size(),
		DynamicSize:       s.dynamic.Size(),
		HotCapacity:       s.opts.HotCapacity,
		PermanentCapacity: s.opts.PermanentCapacity,
		DynamicCapacity:   s.opts.DynamicCapacity,
		IndexType:         s.permanent.Type(),
	}
}

// Dimensions returns the vector dimension of every partition.
func (s *Store) Dimensions() int {
	return s.opts.Dimensions
}

// HotIDs returns hot partition ids, oldest first.
func (s *Store) HotIDs() []string {
	return s.hot.IDs()
}

// Close releases every partition.
func (s *Store) Close() error {
	var firstErr error
	for _, idx := range []vector.Index{s.hot, s.permanent, s.dynamic} {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
