// ABOUTME: Vector record persistence for the durable index backend
// ABOUTME: Stores vectors as little-endian float64 BLOBs next to their document and metadata
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/harper/vidchat/internal/models"
)

// RecordStore handles vector record persistence
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new RecordStore
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// Upsert inserts a record or replaces the content of an existing one.
// The row keeps its original seq so insertion order survives overwrites.
func (s *RecordStore) Upsert(ctx context.Context, ns models.Namespace, rec models.Record) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO records (namespace, id, video_id, document, metadata, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			video_id = excluded.video_id,
			document = excluded.document,
			metadata = excluded.metadata,
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`, string(ns), rec.ID, rec.Metadata[models.MetaVideoID], rec.Document, string(meta), vectorToBlob(rec.Vector), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}
	return nil
}

// EnsureDimension records dim as the vector length of this database on first use
// and returns the length the database was built with. Databases created before
// the setting existed take it from any stored vector.
func (s *RecordStore) EnsureDimension(ctx context.Context, dim int) (int, error) {
	var stored int
	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		var value string
		err := tx.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = 'vector_dimension'").Scan(&value)
		switch {
		case err == nil:
			n, convErr := strconv.Atoi(value)
			if convErr != nil {
				return fmt.Errorf("invalid stored vector_dimension %q: %w", value, convErr)
			}
			stored = n
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to read vector_dimension: %w", err)
		}

		var blobLen int
		err = tx.QueryRowContext(ctx, "SELECT length(vector) FROM records LIMIT 1").Scan(&blobLen)
		switch {
		case err == nil:
			stored = blobLen / 8
		case errors.Is(err, sql.ErrNoRows):
			stored = dim
		default:
			return fmt.Errorf("failed to inspect stored vectors: %w", err)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO index_meta (key, value) VALUES ('vector_dimension', ?)", strconv.Itoa(stored))
		return err
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

// ListByVideo returns every record of a video in a namespace, in insertion order
func (s *RecordStore) ListByVideo(ctx context.Context, ns models.Namespace, videoID string) ([]models.Record, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, document, metadata, vector
		FROM records
		WHERE namespace = ? AND video_id = ?
		ORDER BY seq ASC
	`, string(ns), videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.Record
	for rows.Next() {
		var (
			rec  models.Record
			meta string
			blob []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Document, &meta, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", rec.ID, err)
		}
		rec.Vector = blobToVector(blob)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteIDs removes the given records from a namespace
func (s *RecordStore) DeleteIDs(ctx context.Context, ns models.Namespace, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	deleted := 0
	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, "DELETE FROM records WHERE namespace = ? AND id = ?", string(ns), id)
			if err != nil {
				return fmt.Errorf("failed to delete record %s: %w", id, err)
			}
			n, _ := res.RowsAffected()
			deleted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// vectorToBlob converts a float64 slice to binary blob
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float64 slice
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(blob[i*8:])
		vector[i] = math.Float64frombits(bits)
	}
	return vector
}
