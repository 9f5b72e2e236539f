package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearQdrantEnv(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_API_KEY", "")
	t.Setenv("QDRANT_COLLECTION", "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	clearQdrantEnv(t)
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  hot_capacity: 50
anchor:
  distance_threshold: 0.4
remote:
  timeout: 2s
maintenance:
  anchor_decay_interval: 30m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.HotCapacity != 50 {
		t.Errorf("hot_capacity = %d, want 50", cfg.Storage.HotCapacity)
	}
	if cfg.Anchor.DistanceThreshold != 0.4 {
		t.Errorf("distance_threshold = %f, want 0.4", cfg.Anchor.DistanceThreshold)
	}
	if cfg.Remote.Timeout != 2*time.Second {
		t.Errorf("remote.timeout = %s, want 2s", cfg.Remote.Timeout)
	}
	if cfg.Maintenance.AnchorDecayInterval != 30*time.Minute {
		t.Errorf("anchor_decay_interval = %s", cfg.Maintenance.AnchorDecayInterval)
	}
	if cfg.Storage.DatabasePath != DefaultDatabasePath {
		t.Errorf("database_path = %s, want in-memory default", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	clearQdrantEnv(t)
	path := writeConfig(t, `
debug: true
log_level: warn
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearQdrantEnv(t)
	path := writeConfig(t, `
storage:
  database_path: "./data/db/documents.db"
ingest:
  directories: ["./dev/sample"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "documents.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Ingest.Directories) != 1 {
		t.Fatalf("ingest directories: got %d", len(cfg.Ingest.Directories))
	}
	wantDir := filepath.Join(dir, "dev", "sample")
	if cfg.Ingest.Directories[0] != wantDir {
		t.Errorf("ingest directory = %s, want %s", cfg.Ingest.Directories[0], wantDir)
	}
}

func TestLoad_invalid(t *testing.T) {
	clearQdrantEnv(t)
	path := writeConfig(t, `
cache:
  decay_factor: 1.5
`)
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8000 {
		t.Errorf("default server: got %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 384 || cfg.Embedding.Provider != "mock" {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Storage.HotCapacity != 1000 || cfg.Storage.PermanentCapacity != 30000 || cfg.Storage.DynamicCapacity != 70000 {
		t.Errorf("storage defaults: %+v", cfg.Storage)
	}
	a := cfg.Anchor
	if a.DistanceThreshold != 0.35 || a.PredictionThreshold != 0.85 || a.InitialStrength != 15 {
		t.Errorf("anchor thresholds: %+v", a)
	}
	if a.DecayWeak != 0.5 || a.DecayMedium != 0.8 || a.DecayStrong != 0.9 || a.PredictionStdDev != 0.05 {
		t.Errorf("anchor decay: %+v", a)
	}
	if a.RandomSeed != 42 {
		t.Errorf("random seed = %d", a.RandomSeed)
	}
	if cfg.Cache.DistanceThreshold != 0.3 || cfg.Cache.DecayFactor != 0.95 {
		t.Errorf("cache defaults: %+v", cfg.Cache)
	}
	if cfg.Remote.Provider != "mock" || cfg.Remote.Collection != "hybrid_vdb_demo" || cfg.Remote.MockSize != 256 {
		t.Errorf("remote defaults: %+v", cfg.Remote)
	}
	if len(cfg.Ingest.Extensions) == 0 || cfg.Ingest.Extensions[0] != ".txt" {
		t.Errorf("ingest extensions: got %v", cfg.Ingest.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_RecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Ingest: IngestConfig{Directories: []string{"/tmp/docs"}}}
	ApplyDefaults(cfg)
	if cfg.Ingest.Recursive == nil || !*cfg.Ingest.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestIngestConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		i := &IngestConfig{}
		if got := i.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		i := &IngestConfig{Recursive: &f}
		if got := i.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("QDRANT_URL", "https://qdrant.example.com:6333")
	t.Setenv("QDRANT_API_KEY", "secret")
	t.Setenv("QDRANT_COLLECTION", "docs")

	cfg := Default()
	if cfg.Remote.Provider != "qdrant" {
		t.Errorf("provider = %s, want qdrant", cfg.Remote.Provider)
	}
	if cfg.Remote.Host != "qdrant.example.com" || cfg.Remote.Port != 6334 || !cfg.Remote.UseTLS {
		t.Errorf("remote = %+v", cfg.Remote)
	}
	if cfg.Remote.APIKey != "secret" || cfg.Remote.Collection != "docs" {
		t.Errorf("remote = %+v", cfg.Remote)
	}
}

func TestParseQdrantURL(t *testing.T) {
	tests := []struct {
		raw      string
		host     string
		port     int
		tls      bool
		wantFail bool
	}{
		{raw: "localhost", host: "localhost", port: 6334},
		{raw: "http://db:7000", host: "db", port: 7000},
		{raw: "https://cloud.qdrant.io", host: "cloud.qdrant.io", port: 6334, tls: true},
		{raw: "http://db:port", wantFail: true},
	}
	for _, tt := range tests {
		host, port, tls, err := parseQdrantURL(tt.raw)
		if tt.wantFail {
			if err == nil {
				t.Errorf("%s: expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.raw, err)
			continue
		}
		if host != tt.host || port != tt.port || tls != tt.tls {
			t.Errorf("%s: got %s:%d tls=%v", tt.raw, host, port, tls)
		}
	}
}

func TestSave(t *testing.T) {
	clearQdrantEnv(t)
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Remote.Timeout = 3 * time.Second
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Remote.Timeout != 3*time.Second {
		t.Errorf("loaded remote timeout: got %s", loaded.Remote.Timeout)
	}
}
