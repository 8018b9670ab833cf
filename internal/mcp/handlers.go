package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"medrag/internal/pipeline"
	"medrag/internal/storage"
)

// makeSearchHandler creates the search_articles tool handler. Candidates go
// through the full retrieve, expand, rerank chain; only the final ordering
// is exposed.
func makeSearchHandler(p *pipeline.Pipeline) func(
	context.Context, *mcp.CallToolRequest, SearchArticlesInput,
) (*mcp.CallToolResult, SearchArticlesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchArticlesInput) (
		*mcp.CallToolResult, SearchArticlesOutput, error,
	) {
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}

		candidates := p.Search(ctx, input.Query)
		if len(candidates) > maxResults {
			candidates = candidates[:maxResults]
		}

		results := make([]ArticleResult, 0, len(candidates))
		for _, c := range candidates {
			results = append(results, ArticleResult{
				ID:       c.Article.ID,
				Title:    c.Article.Title,
				Abstract: c.Article.Abstract,
				Score:    c.Score,
			})
		}

		if len(results) == 0 {
			return nil, SearchArticlesOutput{
				Results: []ArticleResult{},
				Message: "No matching articles found. Try broader search terms.",
			}, nil
		}
		return nil, SearchArticlesOutput{Results: results}, nil
	}
}

// makeAskHandler creates the ask tool handler.
func makeAskHandler(p *pipeline.Pipeline) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		answer, err := p.Ask(ctx, input.Query, input.SessionID)
		if err != nil {
			return nil, AskOutput{}, fmt.Errorf("answer question: %w", err)
		}

		contexts := make([]ArticleResult, 0, len(answer.Contexts))
		for _, c := range answer.Contexts {
			contexts = append(contexts, ArticleResult{
				ID:       c.Article.ID,
				Title:    c.Article.Title,
				Abstract: c.Article.Abstract,
				Score:    c.Score,
			})
		}

		return nil, AskOutput{
			Answer:    answer.Text,
			SessionID: answer.SessionID,
			Contexts:  contexts,
		}, nil
	}
}

// makeGetArticleHandler creates the get_article tool handler. A missing id
// is reported through Found rather than an error.
func makeGetArticleHandler(p *pipeline.Pipeline) func(
	context.Context, *mcp.CallToolRequest, GetArticleInput,
) (*mcp.CallToolResult, GetArticleOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetArticleInput) (
		*mcp.CallToolResult, GetArticleOutput, error,
	) {
		article, ok := p.Article(input.ID)
		if !ok {
			return nil, GetArticleOutput{ID: input.ID, Found: false}, nil
		}
		return nil, GetArticleOutput{
			ID:       article.ID,
			Title:    article.Title,
			Abstract: article.Abstract,
			Found:    true,
		}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(p *pipeline.Pipeline, store *storage.Store, collection string) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		out := StatusOutput{
			Collection: collection,
			DocCount:   p.DocCount(),
		}
		if count, err := store.Count(ctx, collection); err == nil {
			out.EntityCount = count
		}
		out.StoreHealthy = store.Health(ctx) == nil
		return nil, out, nil
	}
}
