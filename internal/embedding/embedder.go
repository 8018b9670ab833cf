// Package embedding turns article text into dense vectors via the OpenAI
// embeddings API.
package embedding

import "context"

// Embedder converts texts into fixed-dimension vectors.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dim reports the vector dimension every returned embedding has.
	Dim() int
}
