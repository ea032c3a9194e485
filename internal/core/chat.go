// ABOUTME: ChatService answers questions about a video from retrieved frames and transcript
// ABOUTME: Provider or retrieval failures become a degraded reply with zero confidence
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage"
)

// Generator produces an answer from a question and its context bundle
type Generator interface {
	Name() string
	Generate(ctx context.Context, query string, bundle models.ContextBundle, useVision bool) (models.Generation, error)
}

// ChatService runs one chat turn: retrieve, generate, record, index
type ChatService struct {
	videos    storage.VideoStore
	history   storage.ChatStore
	assembler *ContextAssembler
	ingestion *IngestionPipeline
	generator Generator
	maxFrames int
	logger    *log.Logger
}

// NewChatService creates a chat service; maxFrames is the default context size
func NewChatService(videos storage.VideoStore, history storage.ChatStore, assembler *ContextAssembler,
	ingestion *IngestionPipeline, generator Generator, maxFrames int) *ChatService {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	return &ChatService{
		videos:    videos,
		history:   history,
		assembler: assembler,
		ingestion: ingestion,
		generator: generator,
		maxFrames: maxFrames,
		logger:    logging.For("chat"),
	}
}

// Chat answers req. It fails only for unknown or unready videos, an empty
// message, or when the chat store cannot record the turn.
func (s *ChatService) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()

	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("message cannot be empty")
	}
	if err := s.requireReady(ctx, req.VideoID); err != nil {
		return nil, err
	}

	maxFrames := req.MaxContextFrames
	if maxFrames <= 0 {
		maxFrames = s.maxFrames
	}

	var (
		bundle models.ContextBundle
		answer models.Generation
	)
	bundle, err := s.assembler.GetContext(ctx, req.Message, req.VideoID, maxFrames)
	if err != nil {
		s.logger.Error("context retrieval failed", "video_id", req.VideoID, "err", err)
		bundle = models.ContextBundle{Frames: []models.FrameContext{}}
		answer = degraded(err)
	} else {
		answer, err = s.generator.Generate(ctx, req.Message, bundle, req.UseVision)
		if err != nil {
			s.logger.Error("generation failed", "video_id", req.VideoID, "provider", s.generator.Name(), "err", err)
			answer = degraded(err)
		}
	}

	frameIDs := bundle.FrameIDs()
	user, err := models.NewChatMessage(req.VideoID, models.RoleUser, req.Message, frameIDs)
	if err != nil {
		return nil, err
	}
	content := answer.Content
	if strings.TrimSpace(content) == "" {
		content = degraded(errors.New("empty response from provider")).Content
		answer.Confidence = 0
	}
	assistant, err := models.NewChatMessage(req.VideoID, models.RoleAssistant, content, frameIDs)
	if err != nil {
		return nil, err
	}
	assistant.Confidence = answer.Confidence

	for _, msg := range []*models.ChatMessage{user, assistant} {
		if err := s.history.AppendMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("record chat message: %w", err)
		}
		// Index failures only cost future recall, so the turn still succeeds
		if err := s.ingestion.IngestChatMessage(ctx, msg); err != nil {
			s.logger.Warn("chat message not indexed", "message_id", msg.ID, "err", err)
		}
	}

	return &models.ChatResponse{
		MessageID:      assistant.ID,
		Response:       assistant.Content,
		ContextFrames:  bundle.Frames,
		Confidence:     assistant.Confidence,
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

// Context returns the bundle a chat turn would use, without generating an answer
func (s *ChatService) Context(ctx context.Context, videoID, query string, maxFrames int) (models.ContextBundle, error) {
	if err := s.requireReady(ctx, videoID); err != nil {
		return models.ContextBundle{}, err
	}
	if maxFrames <= 0 {
		maxFrames = s.maxFrames
	}
	return s.assembler.GetContext(ctx, query, videoID, maxFrames)
}

// Frames lists the indexed frames of a known video in timestamp order.
// A video that is still processing may return a partial or empty list.
func (s *ChatService) Frames(ctx context.Context, videoID string) ([]models.Frame, error) {
	if _, err := s.videos.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}
	return s.assembler.Frames(ctx, videoID)
}

// History returns a video's chat messages in creation order
func (s *ChatService) History(ctx context.Context, videoID string) ([]*models.ChatMessage, error) {
	if _, err := s.videos.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}
	messages, err := s.history.ListMessages(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}
	return messages, nil
}

// ClearHistory drops a video's stored messages and their index records
func (s *ChatService) ClearHistory(ctx context.Context, videoID string) (int, error) {
	if _, err := s.videos.GetVideo(ctx, videoID); err != nil {
		return 0, err
	}
	removed, err := s.history.ClearMessages(ctx, videoID)
	if err != nil {
		return 0, fmt.Errorf("clear chat history: %w", err)
	}
	if _, err := s.ingestion.ForgetChat(ctx, videoID); err != nil {
		return removed, fmt.Errorf("clear chat index: %w", err)
	}
	s.logger.Info("cleared chat history", "video_id", videoID, "messages", removed)
	return removed, nil
}

func (s *ChatService) requireReady(ctx context.Context, videoID string) error {
	info, err := s.videos.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if info.Status != models.StatusReady {
		return fmt.Errorf("%w: %s is %s", models.ErrVideoNotReady, videoID, info.Status)
	}
	return nil
}

// degraded is the apologetic answer returned in place of a hard failure
func degraded(err error) models.Generation {
	return models.Generation{
		Content:    fmt.Sprintf("I apologize, but I encountered an error: %v", err),
		Confidence: 0,
	}
}
