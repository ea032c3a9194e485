// ABOUTME: Cosine distance and brute-force ranking used by the in-process backends
// ABOUTME: Ties keep insertion order so results are reproducible
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/harper/vidchat/internal/models"
)

// CosineSimilarity calculates cosine similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineDistance is 1 - cosine similarity, in [0,2]
func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}

// rank scores candidates given in insertion order and keeps the k nearest.
// A stored vector of another length is an error, not a zero score.
func rank(query []float64, candidates []models.Record, k int, filter models.Filter) ([]models.Hit, error) {
	hits := make([]models.Hit, 0, len(candidates))
	for _, rec := range candidates {
		if !filter.Matches(rec.Metadata) {
			continue
		}
		if len(rec.Vector) != len(query) {
			return nil, fmt.Errorf("record %s: %w", rec.ID, models.DimensionError(len(query), len(rec.Vector)))
		}
		hits = append(hits, models.Hit{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: copyMetadata(rec.Metadata),
			Distance: CosineDistance(query, rec.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k < 0 {
		k = 0
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
