// ABOUTME: Deterministic feature-hashing embedder that needs no network access
// ABOUTME: Lowercase word tokens are hashed with FNV-1a into a fixed-size L2-normalised vector
package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/harper/vidchat/internal/models"
)

// HashEmbedder maps text to a bag-of-words vector; equal text always gives an equal vector
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates an embedder producing vectors of the given dimension
func NewHashEmbedder(dim int) (*HashEmbedder, error) {
	if dim <= 0 {
		return nil, models.NewConfigurationError("VECTOR_DIMENSION", "must be positive, got %d", dim)
	}
	return &HashEmbedder{dim: dim}, nil
}

// Embed hashes each token into a bucket and normalises the counts
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dim)
	for _, tok := range Tokenize(text) {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(tok))
		vec[hasher.Sum64()%uint64(h.dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

// Dimension returns the vector length
func (h *HashEmbedder) Dimension() int { return h.dim }

// Tokenize lowercases text and splits it on anything that is not a letter or digit
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
