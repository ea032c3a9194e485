// ABOUTME: Video status storage operations for SQLite
// ABOUTME: Implements save, lookup and listing of VideoInfo records
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harper/vidchat/internal/models"
)

// VideoStore handles video status persistence
type VideoStore struct {
	db *DB
}

// NewVideoStore creates a new VideoStore
func NewVideoStore(db *DB) *VideoStore {
	return &VideoStore{db: db}
}

// SaveVideo inserts or replaces a video record
func (s *VideoStore) SaveVideo(ctx context.Context, v *models.VideoInfo) error {
	var processedAt sql.NullTime
	if v.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *v.ProcessedAt, Valid: true}
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO videos (id, filename, original_filename, file_size, duration, fps, resolution,
			status, uploaded_at, processed_at, frame_count, transcript, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			original_filename = excluded.original_filename,
			file_size = excluded.file_size,
			duration = excluded.duration,
			fps = excluded.fps,
			resolution = excluded.resolution,
			status = excluded.status,
			processed_at = excluded.processed_at,
			frame_count = excluded.frame_count,
			transcript = excluded.transcript,
			error = excluded.error
	`, v.ID, v.Filename, nullString(v.OriginalFilename), v.FileSize, v.Duration, v.FPS,
		nullString(v.Resolution), string(v.Status), v.UploadedAt, processedAt, v.FrameCount,
		nullString(v.Transcript), nullString(v.Error))
	if err != nil {
		return fmt.Errorf("failed to save video %s: %w", v.ID, err)
	}
	return nil
}

// GetVideo retrieves a video by ID; unknown IDs return ErrVideoNotFound
func (s *VideoStore) GetVideo(ctx context.Context, id string) (*models.VideoInfo, error) {
	row := s.db.conn.QueryRowContext(ctx, `
		SELECT id, filename, original_filename, file_size, duration, fps, resolution,
			status, uploaded_at, processed_at, frame_count, transcript, error
		FROM videos
		WHERE id = ?
	`, id)

	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrVideoNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListVideos returns all videos, most recent upload first
func (s *VideoStore) ListVideos(ctx context.Context) ([]*models.VideoInfo, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, filename, original_filename, file_size, duration, fps, resolution,
			status, uploaded_at, processed_at, frame_count, transcript, error
		FROM videos
		ORDER BY uploaded_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var videos []*models.VideoInfo
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.VideoInfo, error) {
	var (
		v           models.VideoInfo
		status      string
		original    sql.NullString
		resolution  sql.NullString
		transcript  sql.NullString
		errMsg      sql.NullString
		processedAt sql.NullTime
	)

	err := row.Scan(&v.ID, &v.Filename, &original, &v.FileSize, &v.Duration, &v.FPS, &resolution,
		&status, &v.UploadedAt, &processedAt, &v.FrameCount, &transcript, &errMsg)
	if err != nil {
		return nil, err
	}

	v.Status = models.VideoStatus(status)
	v.OriginalFilename = original.String
	v.Resolution = resolution.String
	v.Transcript = transcript.String
	v.Error = errMsg.String
	if processedAt.Valid {
		t := processedAt.Time
		v.ProcessedAt = &t
	}
	return &v, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
