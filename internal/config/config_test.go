package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "tei", cfg.Embedder.Type)
	assert.Equal(t, "http://localhost:8081", cfg.Embedder.TEI.BaseURL)
	assert.Equal(t, 32, cfg.Embedder.TEI.BatchSize)
	assert.Equal(t, "qdrant", cfg.VectorStore.Type)
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, "subtitles", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, 384, cfg.VectorStore.Dimension)
	assert.Equal(t, "Cosine", cfg.VectorStore.Qdrant.Distance)
	assert.Equal(t, 50, cfg.Random.SearchLimit)
	assert.Equal(t, 20, cfg.Random.MaxRetries)
	assert.Equal(t, 3, cfg.Random.MinWords)
	assert.Equal(t, 100, cfg.Random.FallbackBatchSize)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "subtitles", cfg.Ingest.SubtitlesDir)
}

func TestLoadFileWithPartialValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embedder:
  type: tei
  tei:
    base_url: http://tei.internal:8080
vector_store:
  type: qdrant
  dimension: 768
  qdrant:
    url: http://qdrant.internal:6333
    collection: lines
random:
  min_words: 5
server:
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://tei.internal:8080", cfg.Embedder.TEI.BaseURL)
	assert.Equal(t, 32, cfg.Embedder.TEI.BatchSize, "unset fields keep defaults")
	assert.Equal(t, 768, cfg.VectorStore.Dimension)
	assert.Equal(t, "lines", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, 5, cfg.Random.MinWords)
	assert.Equal(t, 20, cfg.Random.MaxRetries)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TEI_URL", "http://env-tei:80")
	t.Setenv("QDRANT_URL", "http://env-qdrant:6333")
	t.Setenv("QDRANT_COLLECTION", "env_collection")
	t.Setenv("VECTOR_DIM", "512")
	t.Setenv("SERVER_ADDR", ":7000")
	t.Setenv("SUBTITLES_DIR", "/data/srt")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://env-tei:80", cfg.Embedder.TEI.BaseURL)
	assert.Equal(t, "http://env-qdrant:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, "env_collection", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, 512, cfg.VectorStore.Dimension)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "/data/srt", cfg.Ingest.SubtitlesDir)
}

func TestEnvIgnoresInvalidInt(t *testing.T) {
	t.Setenv("VECTOR_DIM", "not-a-number")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 384, cfg.VectorStore.Dimension)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "config.yaml")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	cfg.Server.Addr = ":9999"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", loaded.Server.Addr)
	assert.Equal(t, cfg.VectorStore.Qdrant.Collection, loaded.VectorStore.Qdrant.Collection)
}

func TestEnsureLocalNoProxy(t *testing.T) {
	t.Setenv("NO_PROXY", "example.com")
	t.Setenv("no_proxy", "")

	EnsureLocalNoProxy()
	assert.Equal(t, "example.com,localhost,127.0.0.1", os.Getenv("NO_PROXY"))

	// idempotent
	EnsureLocalNoProxy()
	assert.Equal(t, "example.com,localhost,127.0.0.1", os.Getenv("NO_PROXY"))
}
