// ABOUTME: Store contracts for video status records and chat history
// ABOUTME: Backends: SQLite (default), Charm KV (cloud-synced), and Redis
package storage

import (
	"context"

	"github.com/harper/vidchat/internal/models"
)

// VideoStore keeps one status record per video
type VideoStore interface {
	GetVideo(ctx context.Context, id string) (*models.VideoInfo, error)
	SaveVideo(ctx context.Context, info *models.VideoInfo) error
	ListVideos(ctx context.Context) ([]*models.VideoInfo, error)
}

// ChatStore keeps each video's chat history in creation order
type ChatStore interface {
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, videoID string) ([]*models.ChatMessage, error)
	ClearMessages(ctx context.Context, videoID string) (int, error)
}

// Store bundles both contracts with the backend's lifecycle
type Store interface {
	VideoStore
	ChatStore
	Close() error
}
