package config

import "time"

const (
	defaultQdrantPort = 6334
	// DefaultDatabasePath keeps the document store in memory, shared across
	// connections of this process.
	DefaultDatabasePath = "file:hybridvdb?mode=memory&cache=shared"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.DefaultK == 0 {
		cfg.Server.DefaultK = 5
	}
	if cfg.Server.MaxK == 0 {
		cfg.Server.MaxK = 100
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "mock"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/hybridvdb/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 10 * time.Second
	}

	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}

	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = DefaultDatabasePath
	}
	if cfg.Storage.HotCapacity == 0 {
		cfg.Storage.HotCapacity = 1000
	}
	if cfg.Storage.PermanentCapacity == 0 {
		cfg.Storage.PermanentCapacity = 30000
	}
	if cfg.Storage.DynamicCapacity == 0 {
		cfg.Storage.DynamicCapacity = 70000
	}

	a := &cfg.Anchor
	if a.DistanceThreshold == 0 {
		a.DistanceThreshold = 0.35
	}
	if a.PredictionThreshold == 0 {
		a.PredictionThreshold = 0.85
	}
	if a.InitialStrength == 0 {
		a.InitialStrength = 15.0
	}
	if a.HitBonus == 0 {
		a.HitBonus = 5.0
	}
	if a.PredictionBonus == 0 {
		a.PredictionBonus = 10.0
	}
	if a.RemovalFloor == 0 {
		a.RemovalFloor = 5.0
	}
	if a.DecayWeak == 0 {
		a.DecayWeak = 0.5
	}
	if a.DecayMedium == 0 {
		a.DecayMedium = 0.8
	}
	if a.DecayStrong == 0 {
		a.DecayStrong = 0.9
	}
	if a.PredictionStdDev == 0 {
		a.PredictionStdDev = 0.05
	}
	if a.RandomSeed == 0 {
		a.RandomSeed = 42
	}

	if cfg.Cache.DistanceThreshold == 0 {
		cfg.Cache.DistanceThreshold = 0.3
	}
	if cfg.Cache.DecayFactor == 0 {
		cfg.Cache.DecayFactor = 0.95
	}

	r := &cfg.Remote
	if r.Provider == "" {
		r.Provider = "mock"
	}
	if r.Port == 0 {
		r.Port = defaultQdrantPort
	}
	if r.Collection == "" {
		r.Collection = "hybrid_vdb_demo"
	}
	if r.Timeout == 0 {
		r.Timeout = 5 * time.Second
	}
	if r.Burst == 0 {
		r.Burst = 10
	}
	if r.MaxMessageSize == 0 {
		r.MaxMessageSize = 50 * 1024 * 1024
	}
	if r.MockSize == 0 {
		r.MockSize = 256
	}
	if r.MockSeed == 0 {
		r.MockSeed = 42
	}

	if cfg.Maintenance.AnchorDecayInterval == 0 {
		cfg.Maintenance.AnchorDecayInterval = 10 * time.Minute
	}
	if cfg.Maintenance.CacheDecayInterval == 0 {
		cfg.Maintenance.CacheDecayInterval = time.Minute
	}

	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".pptx", ".odt", ".odp", ".ods", ".xlsx"}
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 200
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 20
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Ingest.Directories) > 0 && cfg.Ingest.Recursive == nil {
		t := true
		cfg.Ingest.Recursive = &t
	}
}
