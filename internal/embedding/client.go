package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

// requestBatchSize bounds how many texts go into a single embeddings request.
const requestBatchSize = 64

// Client is the OpenAI-backed Embedder. Requests are batched, and rate-limit
// responses are retried with exponential backoff while other API errors fail
// immediately.
type Client struct {
	api       openai.Client
	model     string
	dim       int
	batchSize int
	logger    *slog.Logger

	// OnBatch, when set, is called after each successful batch with the
	// number of texts embedded so far and the total. The indexer hangs a
	// progress bar on it.
	OnBatch func(done, total int)
}

// NewClient builds a Client for the given model and expected dimension.
// It reads the OPENAI_API_KEY from the environment and returns an error if
// not set.
func NewClient(model string, dim int, logger *slog.Logger) (*Client, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		api:       openai.NewClient(),
		model:     model,
		dim:       dim,
		batchSize: requestBatchSize,
		logger:    logger,
	}, nil
}

// API returns the underlying OpenAI client for use in other packages (e.g.,
// answer generation).
func (c *Client) API() *openai.Client { return &c.api }

// Dim reports the configured embedding dimension.
func (c *Client) Dim() int { return c.dim }

// Embed embeds texts in request-sized batches, preserving input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end, err)
		}
		out = append(out, vectors...)
		if c.OnBatch != nil {
			c.OnBatch(end, len(texts))
		}
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model: openai.EmbeddingModel(c.model),
		})
		if err != nil {
			if isRateLimit(err) {
				c.logger.Warn("embeddings request rate limited, backing off", "batch_size", len(texts))
				return err
			}
			return backoff.Permanent(err)
		}

		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("embeddings response has %d vectors for %d texts", len(resp.Data), len(texts)))
		}
		vectors = make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			if c.dim > 0 && len(d.Embedding) != c.dim {
				return backoff.Permanent(fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(d.Embedding), c.dim))
			}
			vectors[i] = toFloat32(d.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return vectors, nil
}

// toFloat32 converts []float64 to []float32. The API returns float64, but
// storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}

func isRateLimit(err error) bool {
	var apiErr *openai.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}
