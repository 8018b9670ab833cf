package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestStore creates a store backed by a fresh temp file.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err, "Failed to open store")
	t.Cleanup(func() { store.Close() })
	return store
}

func cosineSpec(dim int) CollectionSpec {
	return CollectionSpec{
		Dim:         dim,
		Metric:      MetricCosine,
		IndexType:   "IVF_FLAT",
		IndexParams: map[string]int{"nlist": 8},
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "store.db")
	store, err := Open(path, testLogger())
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	assert.NoError(t, store.Health(context.Background()))
}

func TestEnsureCollectionIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "articles", cosineSpec(3)))
	require.NoError(t, store.EnsureCollection(ctx, "articles", cosineSpec(3)))

	count, err := store.Count(ctx, "articles")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestEnsureCollectionRejectsSchemaConflicts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "articles", cosineSpec(3)))

	err := store.EnsureCollection(ctx, "articles", cosineSpec(4))
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	l2 := cosineSpec(3)
	l2.Metric = MetricL2
	err = store.EnsureCollection(ctx, "articles", l2)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestEnsureCollectionRejectsBadSpec(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.EnsureCollection(ctx, "articles", CollectionSpec{Dim: 0, Metric: MetricCosine})
	assert.ErrorIs(t, err, ErrSetup)

	err = store.EnsureCollection(ctx, "articles", CollectionSpec{Dim: 3, Metric: "HAMMING"})
	assert.ErrorIs(t, err, ErrSetup)
}

func TestEnsureCollectionNormalizesMetricAliases(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	spec := cosineSpec(3)
	spec.Metric = "cosine"
	require.NoError(t, store.EnsureCollection(ctx, "articles", spec))

	// Canonical and alias spellings resolve to the same stored metric.
	require.NoError(t, store.EnsureCollection(ctx, "articles", cosineSpec(3)))
	spec.Metric = "COS"
	require.NoError(t, store.EnsureCollection(ctx, "articles", spec))

	euclid := cosineSpec(3)
	euclid.Metric = "euclidean"
	assert.ErrorIs(t, store.EnsureCollection(ctx, "articles", euclid), ErrSchemaMismatch)
}

func TestCountUnavailableForMissingCollection(t *testing.T) {
	store := setupTestStore(t)

	// No collection table and no statistics yet: both count paths fail.
	_, err := store.Count(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCountUnavailable)
}

func TestUpsertAndSearchRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "articles", cosineSpec(3)))

	records := []Record{
		{ID: 0, Embedding: []float32{1, 0, 0}, ContentPreview: "first"},
		{ID: 1, Embedding: []float32{0.9, 0.1, 0}, ContentPreview: "second"},
		{ID: 2, Embedding: []float32{0, 1, 0}, ContentPreview: "third"},
	}
	require.NoError(t, store.Upsert(ctx, "articles", records))

	count, err := store.Count(ctx, "articles")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	hits, err := store.Search(ctx, "articles", []float32{1, 0, 0}, 2, SearchParams{Nprobe: 8})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(0), hits[0].ID)
	assert.Equal(t, int64(1), hits[1].ID)
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
}

func TestUpsertOverwritesById(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "articles", cosineSpec(3)))
	require.NoError(t, store.Upsert(ctx, "articles", []Record{
		{ID: 7, Embedding: []float32{1, 0, 0}},
	}))
	require.NoError(t, store.Upsert(ctx, "articles", []Record{
		{ID: 7, Embedding: []float32{0, 1, 0}},
	}))

	count, err := store.Count(ctx, "articles")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	embeddings, err := store.LoadEmbeddings(ctx, "articles")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, embeddings[7])
}

func TestUpsertValidatesDimensions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "articles", cosineSpec(3)))

	err := store.Upsert(ctx, "articles", []Record{
		{ID: 0, Embedding: []float32{1, 0}},
	})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = store.Upsert(ctx, "missing", []Record{
		{ID: 0, Embedding: []float32{1, 0, 0}},
	})
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestSearchValidatesQueryDimension(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "articles", cosineSpec(3)))

	_, err := store.Search(ctx, "articles", []float32{1, 0}, 5, SearchParams{Nprobe: 8})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = store.Search(ctx, "missing", []float32{1, 0, 0}, 5, SearchParams{Nprobe: 8})
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestSearchInnerProductRanksLargerDotFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ip := cosineSpec(3)
	ip.Metric = MetricIP
	require.NoError(t, store.EnsureCollection(ctx, "articles", ip))
	require.NoError(t, store.Upsert(ctx, "articles", []Record{
		{ID: 0, Embedding: []float32{1, 0, 0}},
		{ID: 1, Embedding: []float32{2, 0, 0}},
	}))

	hits, err := store.Search(ctx, "articles", []float32{1, 0, 0}, 2, SearchParams{Nprobe: 8})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(1), hits[0].ID, "larger inner product should rank first")
}

func TestLoadEmbeddingsRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "articles", cosineSpec(3)))
	require.NoError(t, store.Upsert(ctx, "articles", []Record{
		{ID: 0, Embedding: []float32{1, 2, 3}},
		{ID: 1, Embedding: []float32{4, 5, 6}},
	}))

	embeddings, err := store.LoadEmbeddings(ctx, "articles")
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{1, 2, 3}, embeddings[0])
	assert.Equal(t, []float32{4, 5, 6}, embeddings[1])
}
