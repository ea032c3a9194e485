// ABOUTME: In-process vector index backend guarded by one lock per namespace
// ABOUTME: Used for tests, benchmarks, and ephemeral sessions
package index

import (
	"context"
	"sync"

	"github.com/harper/vidchat/internal/models"
)

type collection struct {
	mu      sync.RWMutex
	order   []string
	records map[string]models.Record
}

// MemoryIndex keeps every namespace in memory
type MemoryIndex struct {
	dim         int
	collections map[models.Namespace]*collection
}

// NewMemoryIndex creates an empty index for vectors of the given dimension
func NewMemoryIndex(dim int) (*MemoryIndex, error) {
	if dim <= 0 {
		return nil, models.NewConfigurationError("vector_dimension", "must be positive, got %d", dim)
	}
	idx := &MemoryIndex{
		dim:         dim,
		collections: make(map[models.Namespace]*collection, len(models.Namespaces)),
	}
	for _, ns := range models.Namespaces {
		idx.collections[ns] = &collection{records: make(map[string]models.Record)}
	}
	return idx, nil
}

// Add upserts a record; an overwritten ID keeps its original position
func (m *MemoryIndex) Add(ctx context.Context, ns models.Namespace, rec models.Record) error {
	if err := checkRecord(m.dim, ns, rec); err != nil {
		return err
	}

	stored := models.Record{
		ID:       rec.ID,
		Vector:   append([]float64(nil), rec.Vector...),
		Document: rec.Document,
		Metadata: copyMetadata(rec.Metadata),
	}

	c := m.collections[ns]
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.records[rec.ID]; !exists {
		c.order = append(c.order, rec.ID)
	}
	c.records[rec.ID] = stored
	return nil
}

// Query ranks the namespace's matching records by cosine distance
func (m *MemoryIndex) Query(ctx context.Context, ns models.Namespace, vector []float64, k int, filter models.Filter) ([]models.Hit, error) {
	if err := checkQuery(m.dim, ns, vector, filter); err != nil {
		return nil, err
	}

	c := m.collections[ns]
	c.mu.RLock()
	candidates := make([]models.Record, 0, len(c.order))
	for _, id := range c.order {
		candidates = append(candidates, c.records[id])
	}
	c.mu.RUnlock()

	return rank(vector, candidates, k, filter)
}

// Delete removes every matching record
func (m *MemoryIndex) Delete(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error) {
	if err := checkNamespace(ns); err != nil {
		return 0, err
	}
	if err := checkFilter(filter); err != nil {
		return 0, err
	}

	c := m.collections[ns]
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	deleted := 0
	for _, id := range c.order {
		if filter.Matches(c.records[id].Metadata) {
			delete(c.records, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return deleted, nil
}

// Count returns the number of matching records
func (m *MemoryIndex) Count(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error) {
	if err := checkNamespace(ns); err != nil {
		return 0, err
	}
	if err := checkFilter(filter); err != nil {
		return 0, err
	}

	c := m.collections[ns]
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, id := range c.order {
		if filter.Matches(c.records[id].Metadata) {
			n++
		}
	}
	return n, nil
}

// List returns copies of the matching records in insertion order
func (m *MemoryIndex) List(ctx context.Context, ns models.Namespace, filter models.Filter) ([]models.Record, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	c := m.collections[ns]
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []models.Record{}
	for _, id := range c.order {
		rec := c.records[id]
		if !filter.Matches(rec.Metadata) {
			continue
		}
		out = append(out, models.Record{
			ID:       rec.ID,
			Vector:   append([]float64(nil), rec.Vector...),
			Document: rec.Document,
			Metadata: copyMetadata(rec.Metadata),
		})
	}
	return out, nil
}

// Dimension returns the configured vector length
func (m *MemoryIndex) Dimension() int { return m.dim }

// Close is a no-op for the memory backend
func (m *MemoryIndex) Close() error { return nil }
