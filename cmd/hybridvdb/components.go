package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/anchor"
	"github.com/hyperjump/hybridvdb/internal/config"
	"github.com/hyperjump/hybridvdb/internal/embedding"
	"github.com/hyperjump/hybridvdb/internal/extract"
	"github.com/hyperjump/hybridvdb/internal/ingest"
	"github.com/hyperjump/hybridvdb/internal/metrics"
	"github.com/hyperjump/hybridvdb/internal/remote"
	"github.com/hyperjump/hybridvdb/internal/router"
	"github.com/hyperjump/hybridvdb/internal/semcache"
	"github.com/hyperjump/hybridvdb/internal/storage"
	"github.com/hyperjump/hybridvdb/internal/tiered"
	"github.com/hyperjump/hybridvdb/internal/vector"
)

// Components are the wired collaborators behind one router.
type Components struct {
	Registry  *prometheus.Registry
	Documents *storage.SQLiteStorage
	Embedder  embedding.Embedder
	Store     *tiered.Store
	Remote    remote.Searcher
	Router    *router.Router
	Ingester  *ingest.Ingester
}

// Close releases everything initializeComponents opened.
func (c *Components) Close() {
	if c.Remote != nil {
		_ = c.Remote.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Documents != nil {
		_ = c.Documents.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (_ *Components, err error) {
	comps := &Components{}
	defer func() {
		if err != nil {
			comps.Close()
		}
	}()

	comps.Documents, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	comps.Embedder, err = embedding.New(embedding.Options{
		Provider:   cfg.Embedding.Provider,
		ModelPath:  cfg.Embedding.ModelPath,
		Dimensions: cfg.Embedding.Dimensions,
		MaxTokens:  cfg.Embedding.MaxTokens,
		CacheSize:  cfg.Embedding.CacheSize,
	})
	if err != nil {
		if cfg.Embedding.Provider != string(embedding.ProviderONNX) {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		logger.Warn("onnx embedder unavailable, falling back to mock", zap.Error(err))
		comps.Embedder, err = embedding.New(embedding.Options{
			Provider:   string(embedding.ProviderMock),
			Dimensions: cfg.Embedding.Dimensions,
			CacheSize:  cfg.Embedding.CacheSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
	}

	tierOpts := tiered.Options{
		Dimensions:        cfg.Embedding.Dimensions,
		IndexType:         cfg.Vector.IndexType,
		HotCapacity:       cfg.Storage.HotCapacity,
		PermanentCapacity: cfg.Storage.PermanentCapacity,
		DynamicCapacity:   cfg.Storage.DynamicCapacity,
	}
	comps.Store, err = tiered.New(tierOpts, tiered.WithLogger(logger))
	if err != nil && cfg.Vector.IndexType != "memory" {
		logger.Warn("failed to create vector index, falling back to memory",
			zap.String("requested_type", cfg.Vector.IndexType),
			zap.Bool("faiss_available", vector.IsFAISSAvailable()),
			zap.Error(err))
		tierOpts.IndexType = "memory"
		comps.Store, err = tiered.New(tierOpts, tiered.WithLogger(logger))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tiered store: %w", err)
	}

	tracker, err := anchor.NewTracker(cfg.Embedding.Dimensions, anchorConfig(cfg.Anchor), anchor.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize anchor tracker: %w", err)
	}
	cache, err := semcache.New(cfg.Embedding.Dimensions,
		semcache.WithLogger(logger),
		semcache.WithDistanceThreshold(cfg.Cache.DistanceThreshold),
		semcache.WithDecayFactor(cfg.Cache.DecayFactor),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize semantic cache: %w", err)
	}

	comps.Remote, err = remote.New(remote.Options{
		Provider:       cfg.Remote.Provider,
		Dimensions:     cfg.Embedding.Dimensions,
		Host:           cfg.Remote.Host,
		Port:           cfg.Remote.Port,
		APIKey:         cfg.Remote.APIKey,
		UseTLS:         cfg.Remote.UseTLS,
		Collection:     cfg.Remote.Collection,
		MaxMessageSize: cfg.Remote.MaxMessageSize,
		RateLimit:      cfg.Remote.RateLimit,
		Burst:          cfg.Remote.Burst,
		MockSize:       cfg.Remote.MockSize,
		MockSeed:       cfg.Remote.MockSeed,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote backend: %w", err)
	}

	comps.Registry = prometheus.NewRegistry()
	comps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	comps.Router, err = router.New(router.Deps{
		Embedder:  comps.Embedder,
		Store:     comps.Store,
		Tracker:   tracker,
		Cache:     cache,
		Remote:    comps.Remote,
		Metrics:   metrics.New(comps.Registry),
		Documents: comps.Documents,
	}, router.WithLogger(logger), router.WithTimeouts(cfg.Embedding.Timeout, cfg.Remote.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	comps.Ingester = ingest.New(comps.Router, extract.NewExtractor(0), ingest.Options{
		Extensions:   cfg.Ingest.Extensions,
		Recursive:    cfg.Ingest.RecursiveOrDefault(),
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
	}, ingest.WithLogger(logger))

	logger.Info("components initialized",
		zap.String("index_type", tierOpts.IndexType),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("remote_provider", comps.Remote.Name()),
		zap.Int("dimensions", cfg.Embedding.Dimensions))
	return comps, nil
}

// anchorConfig maps the config section onto the tracker tuning.
func anchorConfig(c config.AnchorConfig) anchor.Config {
	return anchor.Config{
		DistanceThreshold:   c.DistanceThreshold,
		PredictionThreshold: c.PredictionThreshold,
		InitialStrength:     c.InitialStrength,
		HitBonus:            c.HitBonus,
		PredictionBonus:     c.PredictionBonus,
		RemovalFloor:        c.RemovalFloor,
		DecayWeak:           c.DecayWeak,
		DecayMedium:         c.DecayMedium,
		DecayStrong:         c.DecayStrong,
		PredictionStdDev:    c.PredictionStdDev,
		RandomSeed:          c.RandomSeed,
	}
}
