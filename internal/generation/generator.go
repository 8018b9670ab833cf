// Package generation produces grounded answers from retrieved articles using
// a chat completion model.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"

	"medrag/internal/corpus"
)

// DefaultMaxTokens is the maximum prompt context length before truncation
// (in tokens).
const DefaultMaxTokens = 16000

// InsufficientContextAnswer is returned without calling the model when no
// retrieved articles are available to ground an answer.
const InsufficientContextAnswer = "I don't have enough information in the indexed articles to answer that question."

// Generator answers questions grounded in retrieved article context.
type Generator struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewGenerator creates a Generator with the given OpenAI client. An empty
// model selects GPT-4o.
func NewGenerator(client *openai.Client, model string, logger *slog.Logger) *Generator {
	if model == "" {
		model = string(openai.ChatModelGPT4o)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:    client,
		model:     model,
		maxTokens: DefaultMaxTokens,
		logger:    logger,
	}
}

// Answer produces an answer to query grounded in the given articles. With no
// context articles the model is not called and a fixed insufficient-context
// answer is returned.
func (g *Generator) Answer(ctx context.Context, query string, contexts []corpus.Article) (string, error) {
	if len(contexts) == 0 {
		return InsufficientContextAnswer, nil
	}

	var sb strings.Builder
	for i, a := range contexts {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, a.Title, a.Abstract)
	}

	prompt := fmt.Sprintf(`You are a medical research assistant. Answer the question using only the reference articles below. Cite articles by their bracketed number. If the references do not contain the answer, say so.

Reference articles:
%s
Question: %s`, g.truncate(sb.String()), query)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(g.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// truncate bounds the reference context, estimating 4 bytes per token. The
// cut lands on a rune boundary so multibyte abstracts stay valid UTF-8.
func (g *Generator) truncate(content string) string {
	maxChars := g.maxTokens * 4
	if len(content) <= maxChars {
		return content
	}
	g.logger.Warn("truncating reference context",
		"from_chars", len(content), "to_chars", maxChars)
	return corpus.TruncateRunes(content, maxChars)
}
