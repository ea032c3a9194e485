// ABOUTME: Vector index contract shared by the memory, sqlite, and pgvector backends
// ABOUTME: Every query and delete must be scoped to one video through its filter
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/vidchat/internal/models"
)

// Index stores records in isolated namespaces and answers cosine nearest-neighbour queries
type Index interface {
	// Add upserts a record by ID; the latest content wins
	Add(ctx context.Context, ns models.Namespace, rec models.Record) error
	// Query returns at most k hits in ascending cosine distance
	Query(ctx context.Context, ns models.Namespace, vector []float64, k int, filter models.Filter) ([]models.Hit, error)
	// Delete removes every record matching the filter and returns how many were removed
	Delete(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error)
	// Count returns the number of records matching the filter
	Count(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error)
	// List returns every record matching the filter in insertion order
	List(ctx context.Context, ns models.Namespace, filter models.Filter) ([]models.Record, error)
	// Dimension is the vector length every record and query must have
	Dimension() int
	Close() error
}

// Check rejects an embedder whose output length does not match the index
func Check(idx Index, embedderDimension int) error {
	if idx.Dimension() != embedderDimension {
		return models.DimensionError(idx.Dimension(), embedderDimension)
	}
	return nil
}

func checkNamespace(ns models.Namespace) error {
	if !ns.IsValid() {
		return fmt.Errorf("unknown namespace %q", ns)
	}
	return nil
}

func checkFilter(filter models.Filter) error {
	if strings.TrimSpace(filter[models.MetaVideoID]) == "" {
		return models.ErrMissingVideoFilter
	}
	return nil
}

func checkVector(dim int, vector []float64) error {
	if len(vector) != dim {
		return models.DimensionError(dim, len(vector))
	}
	return nil
}

func checkRecord(dim int, ns models.Namespace, rec models.Record) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	if rec.ID == "" {
		return errors.New("record ID cannot be empty")
	}
	if rec.Metadata[models.MetaVideoID] == "" {
		return fmt.Errorf("record %s: %w", rec.ID, models.ErrMissingVideoFilter)
	}
	return checkVector(dim, rec.Vector)
}

func checkQuery(dim int, ns models.Namespace, vector []float64, filter models.Filter) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	if err := checkFilter(filter); err != nil {
		return err
	}
	return checkVector(dim, vector)
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
