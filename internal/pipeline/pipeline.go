// Package pipeline wires retrieval, graph expansion, reranking and answer
// generation into the question-answering flow.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"medrag/internal/corpus"
	"medrag/internal/docstore"
	"medrag/internal/generation"
	"medrag/internal/graph"
	"medrag/internal/rerank"
	"medrag/internal/retriever"
	"medrag/internal/session"
)

// Candidate is one context article with its relevance score.
type Candidate struct {
	Article corpus.Article
	Score   float64
}

// Answer is the result of one question turn.
type Answer struct {
	SessionID    string
	Query        string
	RefinedQuery string
	Text         string
	Contexts     []Candidate
}

// Pipeline runs retrieve → expand → rerank → generate for each question.
type Pipeline struct {
	retriever *retriever.Retriever
	docs      *docstore.Store
	graph     *graph.Graph
	hops      int
	scorer    rerank.Scorer
	generator *generation.Generator
	sessions  *session.Manager
	finalK    int
	logger    *slog.Logger
}

// New creates a Pipeline. graph may be nil to disable expansion; generator
// may be nil when only search is needed.
func New(ret *retriever.Retriever, docs *docstore.Store, g *graph.Graph, hops int, scorer rerank.Scorer, generator *generation.Generator, finalK int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if finalK <= 0 {
		finalK = 5
	}
	return &Pipeline{
		retriever: ret,
		docs:      docs,
		graph:     g,
		hops:      hops,
		scorer:    scorer,
		generator: generator,
		sessions:  session.NewManager(),
		finalK:    finalK,
		logger:    logger,
	}
}

// Search retrieves, expands and reranks candidates for a query without
// generating an answer. Results are best-first and at most finalK long.
func (p *Pipeline) Search(ctx context.Context, query string) []Candidate {
	return p.rankedCandidates(ctx, query)
}

// Ask answers a question. A non-empty sessionID continues a conversation:
// the previous answer is folded into the retrieval query so follow-ups stay
// on topic, while the generation prompt keeps the user's original wording.
func (p *Pipeline) Ask(ctx context.Context, query, sessionID string) (*Answer, error) {
	if p.generator == nil {
		return nil, fmt.Errorf("answer generation is not configured")
	}

	sess := p.sessions.Get(sessionID)
	refined := session.RefineQuery(query, sess.LastAnswer())
	if refined != query {
		p.logger.Debug("refined follow-up query", "session", sess.ID)
	}

	candidates := p.rankedCandidates(ctx, refined)
	contexts := make([]corpus.Article, len(candidates))
	for i, c := range candidates {
		contexts[i] = c.Article
	}

	text, err := p.generator.Answer(ctx, query, contexts)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	p.sessions.Record(sess.ID, query, text)

	return &Answer{
		SessionID:    sess.ID,
		Query:        query,
		RefinedQuery: refined,
		Text:         text,
		Contexts:     candidates,
	}, nil
}

// Article looks up one article by id.
func (p *Pipeline) Article(id int64) (corpus.Article, bool) {
	return p.docs.Get(id)
}

// DocCount reports how many articles the pipeline can serve.
func (p *Pipeline) DocCount() int {
	return p.docs.Len()
}

// rankedCandidates runs retrieval, optional graph expansion and reranking.
// A reranker failure falls back to the pre-rerank candidate order.
func (p *Pipeline) rankedCandidates(ctx context.Context, query string) []Candidate {
	ids, distances := p.retriever.Retrieve(ctx, query)
	if len(ids) == 0 {
		return nil
	}

	// Graph expansion keeps the retrieval hits first, in retrieval order,
	// and appends newly reached neighbors after them.
	ordered := ids
	if p.graph != nil && p.hops > 0 {
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			seen[id] = struct{}{}
		}
		for _, id := range p.graph.Expand(ids, p.hops) {
			if _, ok := seen[id]; !ok {
				ordered = append(ordered, id)
			}
		}
		if extra := len(ordered) - len(ids); extra > 0 {
			p.logger.Debug("graph expansion added neighbors", "seeds", len(ids), "added", extra)
		}
	}

	articles := p.docs.GetAll(ordered)
	if len(articles) == 0 {
		return nil
	}

	ranked, err := rerank.Rerank(ctx, p.scorer, query, articles)
	if err != nil {
		p.logger.Warn("reranking failed, keeping retrieval order",
			"scorer", p.scorer.ModelName(), "error", err)
		// GetAll may have skipped ids missing from the docstore, so
		// distances are matched by id, not by position.
		distanceByID := make(map[int64]float64, len(ids))
		for i, id := range ids {
			if i < len(distances) {
				distanceByID[id] = distances[i]
			}
		}
		out := make([]Candidate, 0, min(p.finalK, len(articles)))
		for i, a := range articles {
			if i >= p.finalK {
				break
			}
			score := 0.0
			if d, ok := distanceByID[a.ID]; ok {
				score = -d
			}
			out = append(out, Candidate{Article: a, Score: score})
		}
		return out
	}

	out := make([]Candidate, 0, min(p.finalK, len(ranked)))
	for i, r := range ranked {
		if i >= p.finalK {
			break
		}
		out = append(out, Candidate{Article: r.Article, Score: r.Score})
	}
	return out
}
