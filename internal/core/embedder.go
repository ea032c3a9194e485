// ABOUTME: Embedder is the text-to-vector capability used for indexing and querying
// ABOUTME: Implementations live in internal/llm (hash and OpenAI)
package core

import "context"

// Embedder maps text to a fixed-length vector.
// Equal text must always produce an equal vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}
