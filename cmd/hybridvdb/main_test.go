package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/anchor"
	"github.com/hyperjump/hybridvdb/internal/config"
	"github.com/hyperjump/hybridvdb/internal/metrics"
	"github.com/hyperjump/hybridvdb/internal/models"
)

func clearQdrantEnv(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_API_KEY", "")
	t.Setenv("QDRANT_COLLECTION", "")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	clearQdrantEnv(t)
	cfg := config.Default()
	cfg.Embedding.Dimensions = 16
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "docs.db")
	return cfg
}

func writeConfigFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "embedding:\n  dimensions: 16\nstorage:\n  database_path: " + filepath.Join(dir, "docs.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"vectors"}, "vectors"},
		{"multiple words", []string{"semantic", "cache"}, "semantic cache"},
		{"quoted phrase", []string{"semantic cache"}, "semantic cache"},
		{"blank", []string{" "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildQuery(tt.args))
		})
	}
}

func TestAPIURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/api/v1/search", apiURL("http://localhost:8000", "/api/v1/search"))
	assert.Equal(t, "http://localhost:8000/api/v1/search", apiURL("http://localhost:8000/", "/api/v1/search"))
}

func TestLoadConfig(t *testing.T) {
	clearQdrantEnv(t)

	t.Run("explicit path", func(t *testing.T) {
		path := writeConfigFile(t)
		cfg, loaded, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, path, loaded)
		assert.Equal(t, 16, cfg.Embedding.Dimensions)
	})

	t.Run("default path falls back to built-in defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, loaded, err := loadConfig(defaultConfigPath)
		require.NoError(t, err)
		assert.Empty(t, loaded)
		assert.Equal(t, 384, cfg.Embedding.Dimensions)
		assert.Equal(t, config.DefaultDatabasePath, cfg.Storage.DatabasePath)
	})

	t.Run("default path prefers config.yaml in cwd", func(t *testing.T) {
		path := writeConfigFile(t)
		t.Chdir(filepath.Dir(path))
		cfg, loaded, err := loadConfig(defaultConfigPath)
		require.NoError(t, err)
		assert.Equal(t, "config.yaml", filepath.Base(loaded))
		assert.Equal(t, 16, cfg.Embedding.Dimensions)
	})

	t.Run("missing explicit path", func(t *testing.T) {
		_, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestAnchorConfig_DefaultsMatchTracker(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, anchor.DefaultConfig(), anchorConfig(cfg.Anchor))
}

func TestInitializeComponents(t *testing.T) {
	cfg := testConfig(t)
	comps, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	defer comps.Close()

	resp, err := comps.Router.Search(context.Background(), "first query", 3)
	require.NoError(t, err)
	assert.Equal(t, metrics.SourceCloud, resp.Source)
	assert.Len(t, resp.IDs, 3)

	families, err := comps.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["hybridvdb_queries_total"])
	assert.True(t, names["go_goroutines"])
}

func TestInitializeComponents_ONNXFallsBackToMock(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedding.Provider = "onnx"
	cfg.Embedding.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")
	comps, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	defer comps.Close()
	assert.Equal(t, 16, comps.Embedder.Dimensions())
}

func TestInitializeComponents_UnknownRemote(t *testing.T) {
	cfg := testConfig(t)
	cfg.Remote.Provider = "pinecone"
	_, err := initializeComponents(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestStartMaintenance(t *testing.T) {
	cfg := testConfig(t)
	comps, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	defer comps.Close()

	jobs, err := startMaintenance(context.Background(), cfg, comps, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	for _, j := range jobs {
		j.Stop()
	}

	cfg.Maintenance.Disabled = true
	jobs, err = startMaintenance(context.Background(), cfg, comps, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSearchCommand_HTTP(t *testing.T) {
	var got models.SearchRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.SearchResponse{
			Query:      got.Query,
			IDs:        []string{"doc_7"},
			Scores:     []float64{0.8},
			Source:     metrics.SourceLocal,
			AnchorType: anchor.TypeWeak,
		})
	}))
	defer ts.Close()

	out, err := runCmd(t, "search", "--server", ts.URL, "-k", "4", "--output", "json", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Query)
	assert.Equal(t, 4, got.K)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"doc_7"}, resp.IDs)
}

func TestSearchCommand_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"embedder: down"}`))
	}))
	defer ts.Close()

	_, err := runCmd(t, "search", "--server", ts.URL, "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "embedder: down")
}

func TestSearchCommand_InProcess(t *testing.T) {
	clearQdrantEnv(t)
	path := writeConfigFile(t)
	out, err := runCmd(t, "--config", path, "search", "--server", "", "--output", "json", "-k", "2", "one shot")
	require.NoError(t, err)
	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, metrics.SourceCloud, resp.Source)
	assert.Len(t, resp.IDs, 2)
}

func TestCommands_InProcess(t *testing.T) {
	clearQdrantEnv(t)
	path := writeConfigFile(t)

	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.md"), []byte("anchors learn where queries cluster"), 0644))
	out, err := runCmd(t, "--config", path, "ingest", "--server", "", docs)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 1 files")

	out, err = runCmd(t, "--config", path, "status", "--server", "", "-o", "json")
	require.NoError(t, err)
	var st models.Status
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 16, st.EmbeddingDimensions)

	out, err = runCmd(t, "--config", path, "decay", "--server", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 anchors")
}

func TestCommands_BadOutputFormat(t *testing.T) {
	_, err := runCmd(t, "status", "--output", "yaml")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hybridvdb version dev")
}
