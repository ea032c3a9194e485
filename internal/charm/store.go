// ABOUTME: Charm-backed VideoStore and ChatStore
// ABOUTME: Videos live under video:<id>, messages under message:<video-id>:<seq>:<id>
package charm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage"
)

// KV is the subset of the Charm client the store needs
type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
	Close() error
}

// Store keeps video records and chat history in Charm KV
type Store struct {
	kv KV

	mu      sync.Mutex
	lastSeq int64
}

var _ storage.Store = (*Store)(nil)

// Open connects to Charm and returns a store over it
func Open(cfg *Config) (*Store, error) {
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(c), nil
}

// NewStore wraps any KV implementation
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// SaveVideo writes the video record
func (s *Store) SaveVideo(ctx context.Context, info *models.VideoInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return setJSON(s.kv, VideoKey(info.ID), info)
}

// GetVideo reads a video record; unknown IDs return ErrVideoNotFound
func (s *Store) GetVideo(ctx context.Context, id string) (*models.VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var info models.VideoInfo
	if err := getJSON(s.kv, VideoKey(id), &info); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrVideoNotFound, id)
		}
		return nil, err
	}
	return &info, nil
}

// ListVideos returns every video, most recent upload first
func (s *Store) ListVideos(ctx context.Context) ([]*models.VideoInfo, error) {
	keys, err := s.kv.ListKeys(VideoPrefix)
	if err != nil {
		return nil, err
	}
	videos := make([]*models.VideoInfo, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var info models.VideoInfo
		if err := getJSON(s.kv, key, &info); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		videos = append(videos, &info)
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].UploadedAt.After(videos[j].UploadedAt)
	})
	return videos, nil
}

// AppendMessage stores a message after every earlier message of its video
func (s *Store) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return setJSON(s.kv, MessageKey(msg.VideoID, s.nextSeq(msg.CreatedAt.UnixNano()), msg.ID), msg)
}

// ListMessages returns a video's messages in creation order
func (s *Store) ListMessages(ctx context.Context, videoID string) ([]*models.ChatMessage, error) {
	keys, err := s.kv.ListKeys(MessageKeyPrefix(videoID))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	messages := make([]*models.ChatMessage, 0, len(keys))
	for _, key := range keys {
		var msg models.ChatMessage
		if err := getJSON(s.kv, key, &msg); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
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
	keys, err := s.kv.ListKeys(MessageKeyPrefix(videoID))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range keys {
		if err := s.kv.Delete(key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Close closes the underlying KV
func (s *Store) Close() error {
	return s.kv.Close()
}

// nextSeq keeps message keys strictly increasing even when clocks tie
func (s *Store) nextSeq(at int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at <= s.lastSeq {
		at = s.lastSeq + 1
	}
	s.lastSeq = at
	return at
}
