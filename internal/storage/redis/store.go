// ABOUTME: Redis-backed VideoStore and ChatStore using go-redis
// ABOUTME: Videos are JSON strings indexed by a sorted set, messages a list per video
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage"
)

// DefaultPrefix namespaces every key this store writes
const DefaultPrefix = "vidchat:"

// Options configures the connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store keeps video records and chat history in Redis
type Store struct {
	client *goredis.Client
	prefix string
}

var _ storage.Store = (*Store)(nil)

// Open connects and pings the server
func Open(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewStore(client, opts.Prefix), nil
}

// NewStore wraps an existing client; an empty prefix uses DefaultPrefix
func NewStore(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) videoKey(id string) string {
	return s.prefix + "video:" + id
}

func (s *Store) videoIndexKey() string {
	return s.prefix + "videos"
}

func (s *Store) messagesKey(videoID string) string {
	return s.prefix + "messages:" + videoID
}

// SaveVideo writes the record and indexes it by upload time
func (s *Store) SaveVideo(ctx context.Context, info *models.VideoInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.videoKey(info.ID), data, 0)
		pipe.ZAdd(ctx, s.videoIndexKey(), goredis.Z{
			Score:  float64(info.UploadedAt.UnixNano()),
			Member: info.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save video %s: %w", info.ID, err)
	}
	return nil
}

// GetVideo reads a record; unknown IDs return ErrVideoNotFound
func (s *Store) GetVideo(ctx context.Context, id string) (*models.VideoInfo, error) {
	data, err := s.client.Get(ctx, s.videoKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: %s", models.ErrVideoNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var info models.VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode video %s: %w", id, err)
	}
	return &info, nil
}

// ListVideos returns every video, most recent upload first
func (s *Store) ListVideos(ctx context.Context) ([]*models.VideoInfo, error) {
	ids, err := s.client.ZRevRange(ctx, s.videoIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	videos := make([]*models.VideoInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.GetVideo(ctx, id)
		if errors.Is(err, models.ErrVideoNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		videos = append(videos, info)
	}
	return videos, nil
}

// AppendMessage pushes a message onto its video's list
func (s *Store) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return s.client.RPush(ctx, s.messagesKey(msg.VideoID), data).Err()
}

// ListMessages returns a video's messages in creation order
func (s *Store) ListMessages(ctx context.Context, videoID string) ([]*models.ChatMessage, error) {
	items, err := s.client.LRange(ctx, s.messagesKey(videoID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	messages := make([]*models.ChatMessage, 0, len(items))
	for _, item := range items {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		if msg.ContextFrameIDs == nil {
			msg.ContextFrameIDs = []string{}
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}

// ClearMessages deletes a video's history and reports how many messages were removed
func (s *Store) ClearMessages(ctx context.Context, videoID string) (int, error) {
	var length *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		length = pipe.LLen(ctx, s.messagesKey(videoID))
		pipe.Del(ctx, s.messagesKey(videoID))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(length.Val()), nil
}

// Close closes the client
func (s *Store) Close() error {
	return s.client.Close()
}
