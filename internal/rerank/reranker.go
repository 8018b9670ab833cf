// Package rerank reorders retrieval candidates by cross-encoder relevance to
// the query.
package rerank

import (
	"context"
	"sort"

	"medrag/internal/corpus"
)

// Scorer assigns a relevance score to each text for the given query, one
// score per text in input order. Higher is more relevant.
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
	ModelName() string
}

// Ranked is one reranked candidate.
type Ranked struct {
	Article corpus.Article
	Score   float64
}

// Rerank scores every candidate's abstract against the query and returns a
// new slice ordered by descending score. The sort is stable, so candidates
// with equal scores keep their retrieval order. The input slice is not
// modified. A scorer failure is returned to the caller, which falls back to
// the retrieval order.
func Rerank(ctx context.Context, scorer Scorer, query string, candidates []corpus.Article) ([]Ranked, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	texts := make([]string, len(candidates))
	for i, a := range candidates {
		texts[i] = a.Abstract
	}

	scores, err := scorer.Score(ctx, query, texts)
	if err != nil {
		return nil, err
	}

	ranked := make([]Ranked, len(candidates))
	for i, a := range candidates {
		score := 0.0
		if i < len(scores) {
			score = scores[i]
		}
		ranked[i] = Ranked{Article: a, Score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}
