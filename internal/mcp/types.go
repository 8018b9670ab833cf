// Package mcp exposes the retrieval pipeline as MCP tools.
package mcp

// SearchArticlesInput defines the input parameters for the search_articles tool.
type SearchArticlesInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query for finding relevant medical articles"`
	// MaxResults is the maximum number of articles to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of articles to return"`
}

// SearchArticlesOutput contains the search results.
type SearchArticlesOutput struct {
	// Results is the list of matching articles, best-first.
	Results []ArticleResult `json:"results"`
	// Message provides informational context (e.g., "No matching articles found").
	Message string `json:"message,omitempty"`
}

// ArticleResult represents a single article match.
type ArticleResult struct {
	// ID is the article's document id.
	ID int64 `json:"id"`
	// Title is the article title.
	Title string `json:"title"`
	// Abstract is the article abstract.
	Abstract string `json:"abstract"`
	// Score is the cross-encoder relevance score.
	Score float64 `json:"score"`
}

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Query is the medical question to answer.
	Query string `json:"query" jsonschema:"required,description=The medical question to answer from the indexed articles"`
	// SessionID continues a previous conversation when set.
	SessionID string `json:"session_id,omitempty" jsonschema:"description=Session id from a previous answer to continue that conversation"`
}

// AskOutput contains the generated answer and its supporting context.
type AskOutput struct {
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// SessionID identifies the conversation for follow-up questions.
	SessionID string `json:"session_id"`
	// Contexts lists the articles the answer is grounded in.
	Contexts []ArticleResult `json:"contexts"`
}

// GetArticleInput defines the input parameters for the get_article tool.
type GetArticleInput struct {
	// ID is the article's document id.
	ID int64 `json:"id" jsonschema:"required,description=The article id to retrieve"`
}

// GetArticleOutput contains the retrieved article.
type GetArticleOutput struct {
	// ID is the article's document id.
	ID int64 `json:"id"`
	// Title is the article title.
	Title string `json:"title"`
	// Abstract is the article abstract.
	Abstract string `json:"abstract"`
	// Found indicates whether the article exists.
	Found bool `json:"found"`
}

// StatusInput defines the input parameters for the get_index_status tool.
// This tool takes no parameters.
type StatusInput struct{}

// StatusOutput contains index status information.
type StatusOutput struct {
	// Collection is the vector collection name.
	Collection string `json:"collection"`
	// EntityCount is the number of vectors in the collection.
	EntityCount int64 `json:"entity_count"`
	// DocCount is the number of articles loaded for serving.
	DocCount int `json:"doc_count"`
	// StoreHealthy reports vector store connectivity.
	StoreHealthy bool `json:"store_healthy"`
}
