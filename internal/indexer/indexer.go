// Package indexer orchestrates the idempotent indexing pipeline: collection
// setup, completeness check, embedding and storage.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"medrag/internal/corpus"
	"medrag/internal/docstore"
	"medrag/internal/embedding"
	"medrag/internal/storage"
)

// Result contains statistics about an indexing run.
type Result struct {
	Skipped       bool
	DocCount      int
	EmbedDuration time.Duration
	Duration      time.Duration
}

// Indexer wires the corpus, embedder, vector store and document store into
// one indexing pipeline.
type Indexer struct {
	store       *storage.Store
	embedder    embedding.Embedder
	docs        *docstore.Store
	collection  string
	spec        storage.CollectionSpec
	maxArticles int
	logger      *slog.Logger
}

// New creates an Indexer. maxArticles bounds how many articles one run
// indexes; zero or negative means no bound.
func New(store *storage.Store, embedder embedding.Embedder, docs *docstore.Store, collection string, spec storage.CollectionSpec, maxArticles int, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:       store,
		embedder:    embedder,
		docs:        docs,
		collection:  collection,
		spec:        spec,
		maxArticles: maxArticles,
		logger:      logger,
	}
}

// Run indexes the given articles. The run is idempotent: when the collection
// already holds at least as many entities as the run would emit, embedding
// and upsert are skipped entirely and the document store is hydrated from
// the collection instead. Article ids are assigned densely from zero over
// the emitted documents, so articles whose index text is empty do not leave
// holes.
func (ix *Indexer) Run(ctx context.Context, articles []corpus.Article) (*Result, error) {
	start := time.Now()
	result := &Result{}

	if err := ix.store.EnsureCollection(ctx, ix.collection, ix.spec); err != nil {
		return nil, fmt.Errorf("collection setup: %w", err)
	}

	count, err := ix.countWithResetup(ctx)
	if err != nil {
		return nil, err
	}

	if ix.maxArticles > 0 && len(articles) > ix.maxArticles {
		ix.logger.Info("truncating corpus", "from", len(articles), "to", ix.maxArticles)
		articles = articles[:ix.maxArticles]
	}

	// Emit documents with dense zero-based ids, dropping articles whose
	// index text is empty.
	docs := make([]corpus.Article, 0, len(articles))
	texts := make([]string, 0, len(articles))
	for _, a := range articles {
		text := a.IndexText()
		if text == "" {
			ix.logger.Warn("skipping article with empty index text", "title", a.Title)
			continue
		}
		a.ID = int64(len(docs))
		docs = append(docs, a)
		texts = append(texts, text)
	}
	result.DocCount = len(docs)

	if count >= int64(len(docs)) {
		ix.logger.Info("collection already indexed, skipping embedding",
			"collection", ix.collection, "entities", count, "docs", len(docs))
		ix.docs.PutBatch(docs, nil)
		embeddings, err := ix.store.LoadEmbeddings(ctx, ix.collection)
		if err != nil {
			return nil, fmt.Errorf("hydrate embeddings: %w", err)
		}
		ix.docs.PutEmbeddings(embeddings)
		result.Skipped = true
		result.Duration = time.Since(start)
		return result, nil
	}

	embedStart := time.Now()
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	result.EmbedDuration = time.Since(embedStart)
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	records := make([]storage.Record, len(docs))
	for i, doc := range docs {
		records[i] = storage.Record{
			ID:             doc.ID,
			Embedding:      vectors[i],
			ContentPreview: doc.Preview(storage.ContentPreviewMax),
		}
	}
	if err := ix.store.Upsert(ctx, ix.collection, records); err != nil {
		return nil, fmt.Errorf("upsert records: %w", err)
	}

	// The document store only reflects what the collection actually holds,
	// so it is populated after the upsert succeeds.
	ix.docs.PutBatch(docs, vectors)

	result.Duration = time.Since(start)
	ix.logger.Info("indexing complete",
		"collection", ix.collection,
		"docs", result.DocCount,
		"embed_duration", result.EmbedDuration,
		"duration", result.Duration,
	)
	return result, nil
}

// countWithResetup reads the collection's entity count, re-running setup
// once when the count is unavailable.
func (ix *Indexer) countWithResetup(ctx context.Context) (int64, error) {
	count, err := ix.store.Count(ctx, ix.collection)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, storage.ErrCountUnavailable) {
		return 0, fmt.Errorf("entity count: %w", err)
	}
	ix.logger.Warn("entity count unavailable, re-running collection setup", "error", err)
	if err := ix.store.EnsureCollection(ctx, ix.collection, ix.spec); err != nil {
		return 0, fmt.Errorf("collection re-setup: %w", err)
	}
	count, err = ix.store.Count(ctx, ix.collection)
	if err != nil {
		return 0, fmt.Errorf("entity count after re-setup: %w", err)
	}
	return count, nil
}
