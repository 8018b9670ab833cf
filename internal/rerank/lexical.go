package rerank

import "context"

// LexicalScorer is a term-overlap scorer used when no cross-encoder service
// is configured. It scores each text by the fraction of query terms it
// contains.
type LexicalScorer struct{}

// NewLexicalScorer creates a LexicalScorer.
func NewLexicalScorer() *LexicalScorer { return &LexicalScorer{} }

// ModelName identifies the fallback scorer in logs.
func (s *LexicalScorer) ModelName() string { return "lexical-overlap" }

// Score computes term-overlap scores. With an empty query every text gets a
// slightly decaying score so the existing order is preserved.
func (s *LexicalScorer) Score(_ context.Context, query string, texts []string) ([]float64, error) {
	queryTerms := tokenize(query)
	scores := make([]float64, len(texts))
	if len(queryTerms) == 0 {
		for i := range texts {
			scores[i] = 1.0 - float64(i)*0.01
		}
		return scores, nil
	}
	for i, text := range texts {
		scores[i] = termOverlap(queryTerms, text)
	}
	return scores, nil
}

func tokenize(text string) map[string]int {
	terms := make(map[string]int)
	word := ""
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r >= 0x80 {
			word += string(r)
		} else {
			if len(word) >= 2 {
				terms[word]++
			}
			word = ""
		}
	}
	if len(word) >= 2 {
		terms[word]++
	}
	return terms
}

func termOverlap(queryTerms map[string]int, text string) float64 {
	textTerms := tokenize(text)
	if len(textTerms) == 0 {
		return 0
	}
	matches := 0
	for term := range queryTerms {
		if _, ok := textTerms[term]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(queryTerms))
}
