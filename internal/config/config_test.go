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

	assert.Equal(t, "medical_articles", cfg.Store.Collection)
	assert.Equal(t, "COSINE", cfg.Store.Metric)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
	assert.Equal(t, 200, cfg.Corpus.MinLength)
	assert.Equal(t, 0.85, cfg.Graph.Threshold)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medrag.yaml")
	data := []byte(`
store:
  path: /tmp/other.db
  collection: trials
embedding:
  dimension: 768
search:
  top_k: 50
graph:
  enabled: false
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Store.Path)
	assert.Equal(t, "trials", cfg.Store.Collection)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.Equal(t, 50, cfg.Search.TopK)
	assert.False(t, cfg.Graph.Enabled)
	// Untouched sections keep their defaults.
	assert.Equal(t, "COSINE", cfg.Store.Metric)
	assert.Equal(t, 16, cfg.Search.Nprobe)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medrag.yaml")
	cfg := DefaultConfig()
	cfg.Store.Collection = "saved"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved", loaded.Store.Collection)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
