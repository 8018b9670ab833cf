// Package docstore holds the in-process document and embedding lookup maps
// shared by the retrieval pipeline. It replaces ambient global state with an
// explicit store owned by the pipeline and passed into every component that
// needs lookups.
package docstore

import (
	"sort"
	"sync"

	"medrag/internal/corpus"
)

// Store maps document IDs to articles and embeddings for one indexing run.
// It is populated once, after the vector store upsert confirms success, and
// is read-only afterward. Reads may interleave freely.
type Store struct {
	mu         sync.RWMutex
	articles   map[int64]corpus.Article
	embeddings map[int64][]float32
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		articles:   make(map[int64]corpus.Article),
		embeddings: make(map[int64][]float32),
	}
}

// PutBatch records articles and their embeddings in one step. Embeddings may
// be nil when the run was verified complete without re-embedding; they can be
// hydrated later with PutEmbeddings.
func (s *Store) PutBatch(articles []corpus.Article, embeddings [][]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range articles {
		s.articles[a.ID] = a
		if embeddings != nil && i < len(embeddings) {
			s.embeddings[a.ID] = embeddings[i]
		}
	}
}

// PutEmbeddings records embeddings keyed by document ID, typically hydrated
// back from the vector store on a verified-complete run.
func (s *Store) PutEmbeddings(embeddings map[int64][]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, vec := range embeddings {
		s.embeddings[id] = vec
	}
}

// Get returns the article for id, if present.
func (s *Store) Get(id int64) (corpus.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	return a, ok
}

// GetAll returns the articles for the given IDs, skipping unknown IDs and
// preserving input order.
func (s *Store) GetAll(ids []int64) []corpus.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]corpus.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.articles[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Embeddings returns a snapshot of the id→embedding map. The similarity
// graph builder consumes this; the snapshot shares vector backing arrays but
// not the map itself.
func (s *Store) Embeddings() map[int64][]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64][]float32, len(s.embeddings))
	for id, vec := range s.embeddings {
		out[id] = vec
	}
	return out
}

// IDs returns all known document IDs in ascending order.
func (s *Store) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.articles))
	for id := range s.articles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len reports the number of stored articles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}
