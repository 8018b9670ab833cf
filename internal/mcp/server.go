package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"medrag/internal/pipeline"
	"medrag/internal/storage"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server   *mcp.Server
	pipeline *pipeline.Pipeline
	store    *storage.Store
}

// Config holds server dependencies.
type Config struct {
	Pipeline   *pipeline.Pipeline
	Store      *storage.Store
	Collection string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "medrag-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_articles",
		Description: "Search the indexed medical articles semantically. Returns reranked article matches with titles and abstracts.",
	}, makeSearchHandler(cfg.Pipeline))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a medical question grounded in the indexed articles. Pass the returned session_id on follow-up questions to keep the conversation context.",
	}, makeAskHandler(cfg.Pipeline))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_article",
		Description: "Retrieve a specific article by id. Returns the full title and abstract.",
	}, makeGetArticleHandler(cfg.Pipeline))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get the current status of the article index including entity counts and store health.",
	}, makeStatusHandler(cfg.Pipeline, cfg.Store, cfg.Collection))

	return &Server{
		server:   server,
		pipeline: cfg.Pipeline,
		store:    cfg.Store,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
