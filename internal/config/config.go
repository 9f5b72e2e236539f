// Package config provides configuration loading and structs for the hybridvdb server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	LogLevel    string            `yaml:"log_level"`
	Server      ServerConfig      `yaml:"server"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Vector      VectorConfig      `yaml:"vector"`
	Storage     StorageConfig     `yaml:"storage"`
	Anchor      AnchorConfig      `yaml:"anchor"`
	Cache       CacheConfig       `yaml:"cache"`
	Remote      RemoteConfig      `yaml:"remote"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Ingest      IngestConfig      `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DefaultK       int           `yaml:"default_k"`
	MaxK           int           `yaml:"max_k"`
}

// EmbeddingConfig selects and tunes the text embedder.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"` // mock | onnx
	ModelPath  string        `yaml:"model_path"`
	Dimensions int           `yaml:"dimensions"`
	MaxTokens  int           `yaml:"max_tokens"`
	CacheSize  int           `yaml:"cache_size"`
	Timeout    time.Duration `yaml:"timeout"`
}

// VectorConfig selects the similarity index backend for every partition.
type VectorConfig struct {
	IndexType string `yaml:"index_type"` // memory | chromem | faiss
}

// StorageConfig holds partition capacities and the document store location.
// Only HotCapacity is enforced; the other two are reported as targets.
type StorageConfig struct {
	DatabasePath      string `yaml:"database_path"`
	HotCapacity       int    `yaml:"hot_capacity"`
	PermanentCapacity int    `yaml:"permanent_capacity"`
	DynamicCapacity   int    `yaml:"dynamic_capacity"`
}

// AnchorConfig tunes the query-region tracker.
type AnchorConfig struct {
	DistanceThreshold   float64 `yaml:"distance_threshold"`
	PredictionThreshold float64 `yaml:"prediction_threshold"`
	InitialStrength     float64 `yaml:"initial_strength"`
	HitBonus            float64 `yaml:"hit_bonus"`
	PredictionBonus     float64 `yaml:"prediction_bonus"`
	RemovalFloor        float64 `yaml:"removal_floor"`
	DecayWeak           float64 `yaml:"decay_weak"`
	DecayMedium         float64 `yaml:"decay_medium"`
	DecayStrong         float64 `yaml:"decay_strong"`
	PredictionStdDev    float64 `yaml:"prediction_stddev"`
	RandomSeed          int64   `yaml:"random_seed"`
}

// CacheConfig tunes the semantic clustering cache.
type CacheConfig struct {
	DistanceThreshold float64 `yaml:"distance_threshold"`
	DecayFactor       float64 `yaml:"decay_factor"`
}

// RemoteConfig selects the remote search backend used on local misses.
type RemoteConfig struct {
	Provider       string        `yaml:"provider"` // mock | qdrant
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	APIKey         string        `yaml:"api_key"`
	UseTLS         bool          `yaml:"use_tls"`
	Collection     string        `yaml:"collection"`
	Timeout        time.Duration `yaml:"timeout"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second, 0 disables
	Burst          int           `yaml:"burst"`
	MaxMessageSize int           `yaml:"max_message_size"`
	MockSize       int           `yaml:"mock_size"`
	MockSeed       int64         `yaml:"mock_seed"`
}

// MaintenanceConfig holds the periodic decay schedule.
type MaintenanceConfig struct {
	Disabled            bool          `yaml:"disabled"`
	AnchorDecayInterval time.Duration `yaml:"anchor_decay_interval"`
	CacheDecayInterval  time.Duration `yaml:"cache_decay_interval"`
}

// IngestConfig holds file ingestion settings for the permanent partition.
type IngestConfig struct {
	Directories  []string `yaml:"directories"`
	Extensions   []string `yaml:"extensions"`
	Recursive    *bool    `yaml:"recursive"`
	Watch        bool     `yaml:"watch"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// RecursiveOrDefault returns whether to walk directories recursively; defaults to true when unset.
func (i *IngestConfig) RecursiveOrDefault() bool {
	if i.Recursive != nil {
		return *i.Recursive
	}
	return true
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns a config with every default applied and environment
// overrides read. Used when no config file is present.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)
	return &cfg
}

// Load reads and parses the config file at path, expands paths, applies
// defaults and environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Ingest.Directories {
		cfg.Ingest.Directories[i] = expandPath(cfg.Ingest.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv applies the QDRANT_URL, QDRANT_API_KEY and QDRANT_COLLECTION
// overrides. A set QDRANT_URL selects the qdrant remote provider.
func ApplyEnv(cfg *Config) {
	if raw := os.Getenv("QDRANT_URL"); raw != "" {
		if host, port, tls, err := parseQdrantURL(raw); err == nil {
			cfg.Remote.Provider = "qdrant"
			cfg.Remote.Host = host
			cfg.Remote.Port = port
			cfg.Remote.UseTLS = tls
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		cfg.Remote.APIKey = key
	}
	if col := os.Getenv("QDRANT_COLLECTION"); col != "" {
		cfg.Remote.Collection = col
	}
}

// parseQdrantURL splits a Qdrant URL into gRPC host, port and TLS flag.
// The REST port 6333 is mapped to the gRPC port 6334.
func parseQdrantURL(raw string) (string, int, bool, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, err
	}
	if u.Hostname() == "" {
		return "", 0, false, fmt.Errorf("missing host in %q", raw)
	}
	port := defaultQdrantPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port in %q: %w", raw, err)
		}
		if port == 6333 {
			port = defaultQdrantPort
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}

// Validate rejects settings the components cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Embedding.Dimensions <= 0:
		return fmt.Errorf("%w: embedding.dimensions must be positive", ErrInvalidConfig)
	case c.Storage.HotCapacity <= 0:
		return fmt.Errorf("%w: storage.hot_capacity must be positive", ErrInvalidConfig)
	case c.Anchor.DistanceThreshold <= 0 || c.Anchor.DistanceThreshold > 2:
		return fmt.Errorf("%w: anchor.distance_threshold must be in (0, 2]", ErrInvalidConfig)
	case c.Anchor.PredictionThreshold <= 0 || c.Anchor.PredictionThreshold > 1:
		return fmt.Errorf("%w: anchor.prediction_threshold must be in (0, 1]", ErrInvalidConfig)
	case c.Cache.DistanceThreshold <= 0 || c.Cache.DistanceThreshold > 2:
		return fmt.Errorf("%w: cache.distance_threshold must be in (0, 2]", ErrInvalidConfig)
	case c.Cache.DecayFactor <= 0 || c.Cache.DecayFactor > 1:
		return fmt.Errorf("%w: cache.decay_factor must be in (0, 1]", ErrInvalidConfig)
	case c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize:
		return fmt.Errorf("%w: ingest.chunk_overlap must be smaller than chunk_size", ErrInvalidConfig)
	case c.Remote.Provider == "qdrant" && c.Remote.Host == "":
		return fmt.Errorf("%w: remote.host is required for qdrant", ErrInvalidConfig)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. SQLite URIs are left alone.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "file:") || path == ":memory:" {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
