// Package main provides the medrag CLI: corpus indexing, question answering
// and the MCP server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"medrag/internal/config"
	"medrag/internal/corpus"
	"medrag/internal/docstore"
	"medrag/internal/embedding"
	"medrag/internal/generation"
	"medrag/internal/graph"
	"medrag/internal/indexer"
	mcpserver "medrag/internal/mcp"
	"medrag/internal/pipeline"
	"medrag/internal/rerank"
	"medrag/internal/retriever"
	"medrag/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "medrag",
	Short: "Medical article retrieval and question answering",
	Long:  "CLI for indexing medical articles into a local vector store and answering questions over them",
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the article corpus into the vector store",
	Long: `Loads the article corpus, filters noise, embeds the articles and stores
them in the local vector collection.

The run is idempotent: when the collection already holds every document the
embedding step is skipped.

Environment variables:
  OPENAI_API_KEY OpenAI API key for embeddings (required)`,
	RunE: runIndex,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question over the indexed articles",
	Long: `Answers a single question, or starts an interactive session when no
question is given. Interactive follow-up questions are refined with the
previous answer so the conversation stays on topic.`,
	RunE: runAsk,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Serves the retrieval pipeline as MCP tools over stdio, or over HTTP
with --http. A /health endpoint reports vector store connectivity.`,
	RunE: runServe,
}

var (
	serveHTTP bool
	serveAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "medrag.yaml", "path to the configuration file")
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "serve MCP over HTTP instead of stdio")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "0.0.0.0:8080", "HTTP listen address")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles everything a command needs after setup.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.Store
	embedder *embedding.Client
	docs     *docstore.Store
	indexer  *indexer.Indexer
}

func newApp(showProgress bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Logging.Level)

	store, err := storage.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	embedder, err := embedding.NewClient(cfg.Embedding.Model, cfg.Embedding.Dimension, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	if showProgress {
		var bar *progressbar.ProgressBar
		embedder.OnBatch = func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "embedding")
			}
			_ = bar.Set(done)
		}
	}

	docs := docstore.New()
	spec := storage.CollectionSpec{
		Dim:         cfg.Embedding.Dimension,
		Metric:      cfg.Store.Metric,
		IndexType:   cfg.Store.IndexType,
		IndexParams: cfg.Store.IndexParams,
	}
	ix := indexer.New(store, embedder, docs, cfg.Store.Collection, spec, cfg.Corpus.MaxArticles, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		embedder: embedder,
		docs:     docs,
		indexer:  ix,
	}, nil
}

// index loads, filters and indexes the corpus.
func (a *app) index(ctx context.Context) (*indexer.Result, error) {
	articles, err := corpus.LoadArticles(a.cfg.Corpus.Path)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	filtered := corpus.Filter(articles, a.cfg.Corpus.MinLength, a.logger)
	return a.indexer.Run(ctx, filtered)
}

// buildPipeline indexes (or hydrates) the corpus and assembles the question
// pipeline on top of it.
func (a *app) buildPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	if _, err := a.index(ctx); err != nil {
		return nil, err
	}

	var g *graph.Graph
	hops := 0
	if a.cfg.Graph.Enabled {
		g = graph.Build(a.docs.Embeddings(), a.cfg.Graph.Threshold, a.logger)
		hops = a.cfg.Graph.Hops
	}

	var scorer rerank.Scorer
	if a.cfg.Rerank.URL != "" {
		scorer = rerank.NewHTTPScorer(a.cfg.Rerank.URL, os.Getenv(a.cfg.Rerank.APIKeyEnv), a.cfg.Rerank.Model)
	} else {
		scorer = rerank.NewLexicalScorer()
	}

	ret := retriever.New(a.store, a.embedder, a.cfg.Store.Collection, a.cfg.Search.TopK,
		storage.SearchParams{Nprobe: a.cfg.Search.Nprobe, Extra: a.cfg.Search.Extra}, a.logger)
	gen := generation.NewGenerator(a.embedder.API(), a.cfg.Generation.Model, a.logger)

	return pipeline.New(ret, a.docs, g, hops, scorer, gen, a.cfg.Search.FinalK, a.logger), nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.store.Close()

	fmt.Println("Starting indexing...")
	result, err := a.index(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Println()
	if result.Skipped {
		fmt.Println("Collection already indexed, nothing to do")
	} else {
		fmt.Println("Indexing complete!")
		fmt.Printf("  Embedding time: %s\n", result.EmbedDuration.Round(time.Millisecond))
	}
	fmt.Printf("  Documents: %d\n", result.DocCount)
	fmt.Printf("  Total time: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.store.Close()

	p, err := a.buildPipeline(ctx)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return askOnce(ctx, p, strings.Join(args, " "), "")
	}
	return askLoop(ctx, p)
}

func askOnce(ctx context.Context, p *pipeline.Pipeline, question, sessionID string) error {
	answer, err := p.Ask(ctx, question, sessionID)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(answer.Text)
	if len(answer.Contexts) > 0 {
		fmt.Println()
		fmt.Println("References:")
		for i, c := range answer.Contexts {
			fmt.Printf("  [%d] %s\n", i+1, c.Article.Title)
		}
	}
	return nil
}

func askLoop(ctx context.Context, p *pipeline.Pipeline) error {
	fmt.Println("Interactive mode. Empty line exits.")
	scanner := bufio.NewScanner(os.Stdin)
	sessionID := ""
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			return nil
		}
		answer, err := p.Ask(ctx, question, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		sessionID = answer.SessionID
		fmt.Println()
		fmt.Println(answer.Text)
		fmt.Println()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.store.Close()

	p, err := a.buildPipeline(ctx)
	if err != nil {
		return err
	}

	server := mcpserver.NewServer(&mcpserver.Config{
		Pipeline:   p,
		Store:      a.store,
		Collection: a.cfg.Store.Collection,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(a.store))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	if serveHTTP {
		a.logger.Info("starting HTTP server", "addr", serveAddr)
		return http.ListenAndServe(serveAddr, mux)
	}

	// Stdio mode keeps the health endpoint available in the background.
	go func() {
		if err := http.ListenAndServe(serveAddr, mux); err != nil {
			a.logger.Warn("health server stopped", "error", err)
		}
	}()

	a.logger.Info("starting MCP server (stdio mode)")
	return server.Run(ctx)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
