// ABOUTME: Chat history storage operations for SQLite
// ABOUTME: Messages are returned in the order they were appended
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harper/vidchat/internal/models"
)

// MessageStore handles chat message persistence
type MessageStore struct {
	db *DB
}

// NewMessageStore creates a new MessageStore
func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

// AppendMessage stores a chat message
func (s *MessageStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	frameIDs, err := json.Marshal(msg.ContextFrameIDs)
	if err != nil {
		return err
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO messages (id, video_id, role, content, context_frame_ids, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.VideoID, string(msg.Role), msg.Content, string(frameIDs), msg.Confidence, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message %s: %w", msg.ID, err)
	}
	return nil
}

// ListMessages returns a video's chat history in creation order
func (s *MessageStore) ListMessages(ctx context.Context, videoID string) ([]*models.ChatMessage, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, video_id, role, content, context_frame_ids, confidence, created_at
		FROM messages
		WHERE video_id = ?
		ORDER BY seq ASC
	`, videoID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var messages []*models.ChatMessage
	for rows.Next() {
		var (
			msg      models.ChatMessage
			role     string
			frameIDs sql.NullString
		)

		err := rows.Scan(&msg.ID, &msg.VideoID, &role, &msg.Content, &frameIDs, &msg.Confidence, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}

		msg.Role = models.Role(role)
		msg.ContextFrameIDs = []string{}
		if frameIDs.Valid && frameIDs.String != "" {
			if err := json.Unmarshal([]byte(frameIDs.String), &msg.ContextFrameIDs); err != nil || msg.ContextFrameIDs == nil {
				msg.ContextFrameIDs = []string{}
			}
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// ClearMessages deletes a video's chat history and reports how many messages were removed
func (s *MessageStore) ClearMessages(ctx context.Context, videoID string) (int, error) {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM messages WHERE video_id = ?", videoID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
