// Package router orchestrates a query across the embedder, the tiered store,
// the anchor tracker, the semantic cache and the remote backend.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/anchor"
	"github.com/hyperjump/hybridvdb/internal/embedding"
	"github.com/hyperjump/hybridvdb/internal/metrics"
	"github.com/hyperjump/hybridvdb/internal/models"
	"github.com/hyperjump/hybridvdb/internal/remote"
	"github.com/hyperjump/hybridvdb/internal/semcache"
	"github.com/hyperjump/hybridvdb/internal/storage"
	"github.com/hyperjump/hybridvdb/internal/tiered"
	"github.com/hyperjump/hybridvdb/internal/vector"
)

// Deps are the collaborators a Router needs. Documents is optional.
type Deps struct {
	Embedder  embedding.Embedder
	Store     *tiered.Store
	Tracker   *anchor.Tracker
	Cache     *semcache.Cache
	Remote    remote.Searcher
	Metrics   *metrics.Metrics
	Documents storage.Storage
}

// Router runs queries one at a time. Maintenance passes take the same lock,
// so a decay never interleaves with a query.
type Router struct {
	embedder  embedding.Embedder
	store     *tiered.Store
	tracker   *anchor.Tracker
	cache     *semcache.Cache
	remote    remote.Searcher
	metrics   *metrics.Metrics
	documents storage.Storage

	embedTimeout  time.Duration
	remoteTimeout time.Duration
	logger        *zap.Logger
	mu            sync.Mutex
}

// Option configures optional Router settings.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithTimeouts bounds the embedding and remote calls. Zero leaves a call
// bounded only by the caller's context.
func WithTimeouts(embed, remote time.Duration) Option {
	return func(r *Router) {
		r.embedTimeout = embed
		r.remoteTimeout = remote
	}
}

// New checks that the collaborators agree on the vector dimension.
func New(deps Deps, opts ...Option) (*Router, error) {
	switch {
	case deps.Embedder == nil:
		return nil, fmt.Errorf("embedder is required")
	case deps.Store == nil:
		return nil, fmt.Errorf("tiered store is required")
	case deps.Tracker == nil:
		return nil, fmt.Errorf("anchor tracker is required")
	case deps.Cache == nil:
		return nil, fmt.Errorf("semantic cache is required")
	case deps.Remote == nil:
		return nil, fmt.Errorf("remote searcher is required")
	}
	if deps.Embedder.Dimensions() != deps.Store.Dimensions() {
		return nil, fmt.Errorf("embedder produces %d dimensions but the store holds %d",
			deps.Embedder.Dimensions(), deps.Store.Dimensions())
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	r := &Router{
		embedder:  deps.Embedder,
		store:     deps.Store,
		tracker:   deps.Tracker,
		cache:     deps.Cache,
		remote:    deps.Remote,
		metrics:   deps.Metrics,
		documents: deps.Documents,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Search routes one query: prediction check, local tiers, remote fallback,
// anchor and cache bookkeeping, then metrics. Only an embedding failure or a
// malformed vector fails the call; remote trouble yields an empty result.
func (r *Router) Search(ctx context.Context, text string, k int) (*models.SearchResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	requestID := uuid.NewString()
	logger := r.logger.With(zap.String("request_id", requestID))

	query, err := r.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	_, predictionHit, err := r.tracker.CheckPredictionHit(query)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordPrediction(predictionHit)

	results, err := r.store.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("local search: %w", err)
	}
	ids := make([]string, 0, len(results))
	scores := make([]float64, 0, len(results))
	for _, res := range results {
		ids = append(ids, res.ID)
		scores = append(scores, res.Score)
	}

	source := metrics.SourceLocal
	if len(ids) == 0 {
		source = metrics.SourceCloud
		hits := r.searchRemote(ctx, logger, query, k)
		for _, h := range hits {
			ids = append(ids, h.ID)
			scores = append(scores, h.Score)
		}
		r.ingestRemote(ctx, logger, hits)
	}

	a, err := r.tracker.ProcessQuery(query, text)
	if err != nil {
		return nil, err
	}
	if _, err := r.tracker.GeneratePredictions(a.ID, anchor.PredictionCount(a.Type)); err != nil {
		logger.Warn("generate predictions failed", zap.Int64("anchor_id", a.ID), zap.Error(err))
	}

	if len(ids) > 0 {
		if err := r.cache.UpdateWithVector(query, ids[0]); err != nil {
			logger.Warn("semantic cache update failed", zap.Error(err))
		}
	}

	latencyMs := float64(time.Since(start)) / float64(time.Millisecond)
	r.metrics.RecordQuery(latencyMs, source)
	r.observeState()

	logger.Debug("query routed",
		zap.String("source", source),
		zap.Int("results", len(ids)),
		zap.Int64("anchor_id", a.ID),
		zap.Bool("prediction_hit", predictionHit),
		zap.Float64("latency_ms", latencyMs))

	return &models.SearchResponse{
		RequestID:     requestID,
		Query:         text,
		IDs:           ids,
		Scores:        scores,
		Source:        source,
		LatencyMs:     latencyMs,
		AnchorID:      a.ID,
		AnchorType:    a.Type,
		PredictionHit: predictionHit,
		Metrics:       r.metrics.Snapshot(),
		Contents:      r.lookupContents(ctx, logger, ids),
	}, nil
}

func (r *Router) embed(ctx context.Context, text string) ([]float32, error) {
	if r.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.embedTimeout)
		defer cancel()
	}
	v, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, newCollaboratorError("embedding", err)
	}
	if len(v) != r.store.Dimensions() {
		return nil, vector.NewDimensionError(len(v), r.store.Dimensions())
	}
	return v, nil
}

func (r *Router) searchRemote(ctx context.Context, logger *zap.Logger, query []float32, k int) []remote.Hit {
	if r.remoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.remoteTimeout)
		defer cancel()
	}
	hits, err := r.remote.Search(ctx, query, k)
	if err != nil {
		logger.Warn("remote search failed, returning no results",
			zap.String("remote", r.remote.Name()),
			zap.Bool("transient", remote.IsTransientError(err)),
			zap.Error(err))
		return nil
	}
	return hits
}

// ingestRemote copies remote hits that carry a usable vector into the
// dynamic partition and then the hot partition, and keeps their text.
func (r *Router) ingestRemote(ctx context.Context, logger *zap.Logger, hits []remote.Hit) {
	var (
		ids  []string
		vecs [][]float32
		docs []*models.Document
	)
	for i, h := range hits {
		if len(h.Vector) == r.store.Dimensions() {
			ids = append(ids, h.ID)
			vecs = append(vecs, h.Vector)
		}
		if h.Content != "" {
			docs = append(docs, &models.Document{ID: h.ID, Source: r.remote.Name(), Content: h.Content, ChunkIndex: i})
		}
	}
	if len(ids) > 0 {
		if err := r.store.AddDynamic(ctx, ids, vecs); err != nil {
			logger.Warn("ingest remote hits into dynamic partition failed", zap.Error(err))
		}
		if err := r.store.AddHot(ctx, ids, vecs); err != nil {
			logger.Warn("ingest remote hits into hot partition failed", zap.Error(err))
		}
	}
	if r.documents != nil && len(docs) > 0 {
		if err := r.documents.PutDocuments(ctx, docs); err != nil {
			logger.Warn("store remote documents failed", zap.Error(err))
		}
	}
}

func (r *Router) lookupContents(ctx context.Context, logger *zap.Logger, ids []string) map[string]string {
	if r.documents == nil || len(ids) == 0 {
		return nil
	}
	docs, err := r.documents.GetDocuments(ctx, ids)
	if err != nil {
		logger.Warn("document lookup failed", zap.Error(err))
		return nil
	}
	if len(docs) == 0 {
		return nil
	}
	contents := make(map[string]string, len(docs))
	for id, d := range docs {
		contents[id] = d.Content
	}
	return contents
}

func (r *Router) observeState() {
	stats := r.store.Stats()
	r.metrics.ObserveState(r.tracker.Len(), r.cache.Len(), map[string]int{
		string(tiered.PartitionHot):       stats.HotSize,
		string(tiered.PartitionPermanent): stats.PermanentSize,
		string(tiered.PartitionDynamic):   stats.DynamicSize,
	})
}
