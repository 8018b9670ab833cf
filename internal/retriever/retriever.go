// Package retriever embeds queries and finds nearest-neighbor articles in
// the vector store.
package retriever

import (
	"context"
	"log/slog"

	"medrag/internal/embedding"
	"medrag/internal/storage"
)

// Retriever answers nearest-neighbor queries over one collection.
type Retriever struct {
	store      *storage.Store
	embedder   embedding.Embedder
	collection string
	topK       int
	params     storage.SearchParams
	logger     *slog.Logger
}

// New creates a Retriever.
func New(store *storage.Store, embedder embedding.Embedder, collection string, topK int, params storage.SearchParams, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:      store,
		embedder:   embedder,
		collection: collection,
		topK:       topK,
		params:     params,
		logger:     logger,
	}
}

// TopK reports the configured candidate count.
func (r *Retriever) TopK() int { return r.topK }

// Retrieve embeds the query and returns the ids and distances of its nearest
// neighbors, best-first. Retrieval degrades rather than fails: embedding or
// search errors are logged and yield empty results.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]int64, []float64) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		r.logger.Warn("query embedding failed", "error", err)
		return nil, nil
	}

	hits, err := r.store.Search(ctx, r.collection, vectors[0], r.topK, r.params)
	if err != nil {
		r.logger.Warn("vector search failed", "collection", r.collection, "error", err)
		return nil, nil
	}

	ids := make([]int64, len(hits))
	distances := make([]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		distances[i] = h.Distance
	}
	return ids, distances
}
