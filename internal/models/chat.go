// ABOUTME: ChatMessage is one immutable turn of a conversation about a video
// ABOUTME: Both user and assistant turns are stored and indexed for later retrieval
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true for user and assistant
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage represents a single chat turn
type ChatMessage struct {
	ID              string    `json:"id"`
	VideoID         string    `json:"video_id"`
	Role            Role      `json:"role"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"timestamp"`
	ContextFrameIDs []string  `json:"context_frames"`
	Confidence      float64   `json:"confidence,omitempty"`
}

// NewChatMessage creates a message with validation
func NewChatMessage(videoID string, role Role, content string, contextFrameIDs []string) (*ChatMessage, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, errors.New("video ID cannot be empty")
	}
	if !role.IsValid() {
		return nil, errors.New("role must be user or assistant")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("message content cannot be empty")
	}
	if contextFrameIDs == nil {
		contextFrameIDs = []string{}
	}
	return &ChatMessage{
		ID:              uuid.New().String(),
		VideoID:         videoID,
		Role:            role,
		Content:         content,
		CreatedAt:       time.Now().UTC(),
		ContextFrameIDs: contextFrameIDs,
	}, nil
}

// ChatRequest is one user question about a video
type ChatRequest struct {
	VideoID          string `json:"video_id"`
	Message          string `json:"message"`
	UseVision        bool   `json:"use_vision"`
	MaxContextFrames int    `json:"max_context_frames"`
}

// ChatResponse is the assistant answer plus the frames it was grounded on
type ChatResponse struct {
	MessageID      string         `json:"message_id"`
	Response       string         `json:"response"`
	ContextFrames  []FrameContext `json:"context_frames"`
	Confidence     float64        `json:"confidence"`
	ProcessingTime float64        `json:"processing_time"`
}

// Generation is a generator's answer and how much it trusts it
type Generation struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}
