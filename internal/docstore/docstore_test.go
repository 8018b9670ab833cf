package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrag/internal/corpus"
)

func TestPutBatchAndLookups(t *testing.T) {
	s := New()
	s.PutBatch([]corpus.Article{
		{ID: 0, Title: "A"},
		{ID: 1, Title: "B"},
	}, [][]float32{{1, 0}, {0, 1}})

	a, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "A", a.Title)

	_, ok = s.Get(99)
	assert.False(t, ok)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []int64{0, 1}, s.IDs())
}

func TestGetAllSkipsUnknownAndPreservesOrder(t *testing.T) {
	s := New()
	s.PutBatch([]corpus.Article{
		{ID: 0, Title: "A"},
		{ID: 1, Title: "B"},
		{ID: 2, Title: "C"},
	}, nil)

	out := s.GetAll([]int64{2, 99, 0})
	require.Len(t, out, 2)
	assert.Equal(t, "C", out[0].Title)
	assert.Equal(t, "A", out[1].Title)
}

func TestPutEmbeddingsHydratesAfterSkippedRun(t *testing.T) {
	s := New()
	s.PutBatch([]corpus.Article{{ID: 0, Title: "A"}}, nil)
	assert.Empty(t, s.Embeddings())

	s.PutEmbeddings(map[int64][]float32{0: {1, 2}})

	embeddings := s.Embeddings()
	require.Len(t, embeddings, 1)
	assert.Equal(t, []float32{1, 2}, embeddings[0])
}

func TestEmbeddingsSnapshotIsDetached(t *testing.T) {
	s := New()
	s.PutBatch([]corpus.Article{{ID: 0}}, [][]float32{{1}})

	snapshot := s.Embeddings()
	delete(snapshot, 0)

	assert.Len(t, s.Embeddings(), 1)
}
