package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, "127.0.0.1:7233", cfg.Temporal.Address)
	require.Equal(t, "finrag", cfg.Temporal.TaskQueue)
	require.Equal(t, "gemini", cfg.Embedder.Type)
	require.Equal(t, "text-embedding-004", cfg.Embedder.Model)
	require.Equal(t, 768, cfg.Embedder.Dimension)
	require.Equal(t, "gemini-2.5-flash", cfg.Generator.Model)
	require.Equal(t, 512, cfg.Chunker.ChunkSize)
	require.Equal(t, 200, cfg.Chunker.ChunkOverlap)
	require.Equal(t, "qdrant", cfg.VectorStore.Type)
	require.NotNil(t, cfg.VectorStore.Qdrant)
	require.Equal(t, "docs_gemini", cfg.VectorStore.Qdrant.Collection)
	require.Equal(t, 5, cfg.Query.TopK)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Temporal.TaskQueue = "custom-queue"
	cfg.Embedder.Type = "local"
	cfg.Embedder.Dimension = 128
	cfg.VectorStore.Type = "memory"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "custom-queue", loaded.Temporal.TaskQueue)
	require.Equal(t, "local", loaded.Embedder.Type)
	require.Equal(t, 128, loaded.Embedder.Dimension)
	require.Equal(t, "memory", loaded.VectorStore.Type)
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "temporal:\n  address: \"temporal.internal:7233\"\nvector_store:\n  type: memory\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "temporal.internal:7233", cfg.Temporal.Address)
	require.Equal(t, "default", cfg.Temporal.Namespace)
	require.Equal(t, "finrag", cfg.Temporal.TaskQueue)
	require.Equal(t, "memory", cfg.VectorStore.Type)
	require.Equal(t, 512, cfg.Chunker.ChunkSize)
	require.Equal(t, "GOOGLE_API_KEY", cfg.Embedder.Gemini.APIKeyEnv)
}

func TestVectorStoreDefaultsToQdrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "temporal:\n  address: \"temporal.internal:7233\"\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "qdrant", cfg.VectorStore.Type)
	require.NotNil(t, cfg.VectorStore.Qdrant)
	require.Equal(t, "http://127.0.0.1:6333", cfg.VectorStore.Qdrant.URL)
	require.Equal(t, "docs_gemini", cfg.VectorStore.Qdrant.Collection)
	require.Equal(t, 15, cfg.VectorStore.Qdrant.TimeoutSecs)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temporal: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
