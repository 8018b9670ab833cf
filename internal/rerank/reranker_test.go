package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrag/internal/corpus"
)

// fixedScorer returns preset scores (or an error) regardless of input.
type fixedScorer struct {
	scores []float64
	err    error
}

func (s *fixedScorer) Score(context.Context, string, []string) ([]float64, error) {
	return s.scores, s.err
}

func (s *fixedScorer) ModelName() string { return "fixed" }

func articles(titles ...string) []corpus.Article {
	out := make([]corpus.Article, len(titles))
	for i, title := range titles {
		out[i] = corpus.Article{ID: int64(i), Title: title, Abstract: title + " abstract"}
	}
	return out
}

func TestRerankOrdersByDescendingScore(t *testing.T) {
	candidates := articles("A", "B", "C")
	scorer := &fixedScorer{scores: []float64{0.2, 0.9, 0.5}}

	ranked, err := Rerank(context.Background(), scorer, "query", candidates)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "B", ranked[0].Article.Title)
	assert.Equal(t, "C", ranked[1].Article.Title)
	assert.Equal(t, "A", ranked[2].Article.Title)
	assert.Equal(t, 0.9, ranked[0].Score)
}

func TestRerankIsStableOnTies(t *testing.T) {
	candidates := articles("A", "B", "C")
	scorer := &fixedScorer{scores: []float64{0.9, 0.9, 0.5}}

	ranked, err := Rerank(context.Background(), scorer, "query", candidates)
	require.NoError(t, err)

	assert.Equal(t, "A", ranked[0].Article.Title, "tied scores keep retrieval order")
	assert.Equal(t, "B", ranked[1].Article.Title)
	assert.Equal(t, "C", ranked[2].Article.Title)
}

func TestRerankDoesNotMutateInput(t *testing.T) {
	candidates := articles("A", "B", "C")
	scorer := &fixedScorer{scores: []float64{0.1, 0.2, 0.3}}

	_, err := Rerank(context.Background(), scorer, "query", candidates)
	require.NoError(t, err)

	assert.Equal(t, "A", candidates[0].Title)
	assert.Equal(t, "B", candidates[1].Title)
	assert.Equal(t, "C", candidates[2].Title)
}

func TestRerankPropagatesScorerError(t *testing.T) {
	scorer := &fixedScorer{err: errors.New("service down")}

	_, err := Rerank(context.Background(), scorer, "query", articles("A"))
	assert.Error(t, err)
}

func TestRerankEmptyCandidates(t *testing.T) {
	ranked, err := Rerank(context.Background(), &fixedScorer{}, "query", nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestLexicalScorerPrefersTermOverlap(t *testing.T) {
	scorer := NewLexicalScorer()

	scores, err := scorer.Score(context.Background(), "aspirin headache relief", []string{
		"aspirin provides headache relief in adults",
		"surgical outcomes in knee replacement",
	})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Greater(t, scores[0], scores[1])
}

func TestLexicalScorerEmptyQueryDecays(t *testing.T) {
	scorer := NewLexicalScorer()

	scores, err := scorer.Score(context.Background(), "", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Greater(t, scores[0], scores[1])
	assert.Greater(t, scores[1], scores[2])
}
