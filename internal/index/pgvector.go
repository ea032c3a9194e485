// ABOUTME: Postgres vector index backend using the pgvector extension
// ABOUTME: Distances come from the <=> cosine operator, filters from jsonb containment
package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/harper/vidchat/internal/models"
)

// PGVectorIndex stores all namespaces in one table keyed by (namespace, id)
type PGVectorIndex struct {
	dim   int
	pool  *pgxpool.Pool
	table string
}

// NewPGVectorIndex connects to Postgres and creates the records table if needed
func NewPGVectorIndex(ctx context.Context, dsn string, dim int) (*PGVectorIndex, error) {
	if dsn == "" {
		return nil, models.NewConfigurationError("PGVECTOR_DSN", "connection string is required for the pgvector backend")
	}
	if dim <= 0 {
		return nil, models.NewConfigurationError("vector_dimension", "must be positive, got %d", dim)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, models.NewConfigurationError("PGVECTOR_DSN", "parse postgres config: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	// One table per dimension so a model change never mixes vector sizes
	idx := &PGVectorIndex{dim: dim, pool: pool, table: fmt.Sprintf("vidchat_records_%d", dim)}
	if err := idx.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

func (p *PGVectorIndex) ensureTable(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			video_id TEXT NOT NULL,
			document TEXT NOT NULL,
			metadata JSONB NOT NULL,
			embedding vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT now(),
			UNIQUE(namespace, id)
		)`, p.table, p.dim),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_video_idx ON %s(namespace, video_id)", p.table, p.table),
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.table, err)
		}
	}
	return nil
}

// Add upserts a record
func (p *PGVectorIndex) Add(ctx context.Context, ns models.Namespace, rec models.Record) error {
	if err := checkRecord(p.dim, ns, rec); err != nil {
		return err
	}

	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = p.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (namespace, id, video_id, document, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::vector)
		ON CONFLICT (namespace, id) DO UPDATE SET
			video_id = EXCLUDED.video_id,
			document = EXCLUDED.document,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			updated_at = now()
	`, p.table), string(ns), rec.ID, rec.Metadata[models.MetaVideoID], rec.Document, string(meta), toVector(rec.Vector))
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}
	return nil
}

// Query returns the k nearest matching records
func (p *PGVectorIndex) Query(ctx context.Context, ns models.Namespace, vector []float64, k int, filter models.Filter) ([]models.Hit, error) {
	if err := checkQuery(p.dim, ns, vector, filter); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []models.Hit{}, nil
	}

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, document, metadata, embedding <=> $1::vector AS distance
		FROM %s
		WHERE namespace = $2 AND video_id = $3 AND metadata @> $4::jsonb
		ORDER BY distance ASC, seq ASC
		LIMIT $5
	`, p.table), toVector(vector), string(ns), filter[models.MetaVideoID], string(filterJSON), k)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ns, err)
	}
	defer rows.Close()

	hits := []models.Hit{}
	for rows.Next() {
		var (
			hit  models.Hit
			meta []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Document, &meta, &hit.Distance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &hit.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", hit.ID, err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Delete removes every matching record
func (p *PGVectorIndex) Delete(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error) {
	where, args, err := p.where(ns, filter)
	if err != nil {
		return 0, err
	}
	tag, err := p.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", p.table, where), args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", ns, err)
	}
	return int(tag.RowsAffected()), nil
}

// Count returns the number of matching records
func (p *PGVectorIndex) Count(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error) {
	where, args, err := p.where(ns, filter)
	if err != nil {
		return 0, err
	}
	var n int
	err = p.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", p.table, where), args...).Scan(&n)
	return n, err
}

// List returns the matching records in insertion order
func (p *PGVectorIndex) List(ctx context.Context, ns models.Namespace, filter models.Filter) ([]models.Record, error) {
	where, args, err := p.where(ns, filter)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		"SELECT id, document, metadata, embedding::text FROM %s WHERE %s ORDER BY seq ASC", p.table, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", ns, err)
	}
	defer rows.Close()

	records := []models.Record{}
	for rows.Next() {
		var (
			rec  models.Record
			meta []byte
			emb  pgvector.Vector
		)
		if err := rows.Scan(&rec.ID, &rec.Document, &meta, &emb); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", rec.ID, err)
		}
		for _, x := range emb.Slice() {
			rec.Vector = append(rec.Vector, float64(x))
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (p *PGVectorIndex) where(ns models.Namespace, filter models.Filter) (string, []any, error) {
	if err := checkNamespace(ns); err != nil {
		return "", nil, err
	}
	if err := checkFilter(filter); err != nil {
		return "", nil, err
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return "", nil, err
	}
	return "namespace = $1 AND video_id = $2 AND metadata @> $3::jsonb",
		[]any{string(ns), filter[models.MetaVideoID], string(filterJSON)}, nil
}

// Dimension returns the configured vector length
func (p *PGVectorIndex) Dimension() int { return p.dim }

// Close releases the connection pool
func (p *PGVectorIndex) Close() error {
	p.pool.Close()
	return nil
}

func toVector(v []float64) pgvector.Vector {
	f := make([]float32, len(v))
	for i, x := range v {
		f[i] = float32(x)
	}
	return pgvector.NewVector(f)
}
