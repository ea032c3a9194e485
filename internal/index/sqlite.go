// ABOUTME: Durable vector index backend on the shared SQLite database
// ABOUTME: Candidates are narrowed by namespace and video in SQL, then ranked in Go
package index

import (
	"context"
	"fmt"

	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage/sqlite"
)

// SQLiteIndex persists records in the records table of a sqlite.DB
type SQLiteIndex struct {
	dim     int
	records *sqlite.RecordStore
	owned   *sqlite.DB
}

// NewSQLiteIndex creates an index over an already open database.
// A database built with another vector dimension is rejected.
// The caller keeps ownership of db.
func NewSQLiteIndex(db *sqlite.DB, dim int) (*SQLiteIndex, error) {
	if dim <= 0 {
		return nil, models.NewConfigurationError("vector_dimension", "must be positive, got %d", dim)
	}
	if db == nil {
		return nil, models.NewConfigurationError("index_path", "database is required for the sqlite backend")
	}
	records := sqlite.NewRecordStore(db)
	stored, err := records.EnsureDimension(context.Background(), dim)
	if err != nil {
		return nil, fmt.Errorf("check index dimension: %w", err)
	}
	if stored != dim {
		return nil, models.DimensionError(stored, dim)
	}
	return &SQLiteIndex{dim: dim, records: records}, nil
}

// OpenSQLiteIndex opens (or creates) a database file used only by the index
func OpenSQLiteIndex(path string, dim int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, models.NewConfigurationError("index_path", "path is required for the sqlite backend")
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	idx, err := NewSQLiteIndex(db, dim)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	idx.owned = db
	return idx, nil
}

// Add upserts a record
func (s *SQLiteIndex) Add(ctx context.Context, ns models.Namespace, rec models.Record) error {
	if err := checkRecord(s.dim, ns, rec); err != nil {
		return err
	}
	return s.records.Upsert(ctx, ns, rec)
}

// Query ranks a video's records by cosine distance
func (s *SQLiteIndex) Query(ctx context.Context, ns models.Namespace, vector []float64, k int, filter models.Filter) ([]models.Hit, error) {
	if err := checkQuery(s.dim, ns, vector, filter); err != nil {
		return nil, err
	}

	candidates, err := s.records.ListByVideo(ctx, ns, filter[models.MetaVideoID])
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ns, err)
	}
	return rank(vector, candidates, k, filter)
}

// Delete removes every matching record
func (s *SQLiteIndex) Delete(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error) {
	matching, err := s.matching(ctx, ns, filter)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(matching))
	for _, rec := range matching {
		ids = append(ids, rec.ID)
	}
	return s.records.DeleteIDs(ctx, ns, ids)
}

// Count returns the number of matching records
func (s *SQLiteIndex) Count(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error) {
	matching, err := s.matching(ctx, ns, filter)
	if err != nil {
		return 0, err
	}
	return len(matching), nil
}

// List returns the matching records in insertion order
func (s *SQLiteIndex) List(ctx context.Context, ns models.Namespace, filter models.Filter) ([]models.Record, error) {
	return s.matching(ctx, ns, filter)
}

func (s *SQLiteIndex) matching(ctx context.Context, ns models.Namespace, filter models.Filter) ([]models.Record, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	candidates, err := s.records.ListByVideo(ctx, ns, filter[models.MetaVideoID])
	if err != nil {
		return nil, err
	}

	out := []models.Record{}
	for _, rec := range candidates {
		if filter.Matches(rec.Metadata) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Dimension returns the configured vector length
func (s *SQLiteIndex) Dimension() int { return s.dim }

// Close closes the database if the index opened it
func (s *SQLiteIndex) Close() error {
	if s.owned != nil {
		return s.owned.Close()
	}
	return nil
}
