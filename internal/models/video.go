// ABOUTME: VideoInfo tracks an uploaded video through decode, transcription and indexing
// ABOUTME: Status moves uploading → processing → ready, or error with the cause recorded
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VideoStatus represents where a video is in the processing lifecycle
type VideoStatus string

const (
	StatusUploading  VideoStatus = "uploading"
	StatusProcessing VideoStatus = "processing"
	StatusReady      VideoStatus = "ready"
	StatusError      VideoStatus = "error"
)

// IsValid returns true if the status is one of the known lifecycle states
func (s VideoStatus) IsValid() bool {
	switch s {
	case StatusUploading, StatusProcessing, StatusReady, StatusError:
		return true
	}
	return false
}

// IsTerminal returns true once processing can no longer change the status
func (s VideoStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// VideoInfo is the status record kept for every uploaded video
type VideoInfo struct {
	ID               string      `json:"id"`
	Filename         string      `json:"filename"`
	OriginalFilename string      `json:"original_filename"`
	FileSize         int64       `json:"file_size"`
	Duration         float64     `json:"duration,omitempty"`
	FPS              float64     `json:"fps,omitempty"`
	Resolution       string      `json:"resolution,omitempty"`
	Status           VideoStatus `json:"status"`
	UploadedAt       time.Time   `json:"uploaded_at"`
	ProcessedAt      *time.Time  `json:"processed_at,omitempty"`
	FrameCount       int         `json:"frame_count"`
	Transcript       string      `json:"transcript,omitempty"`
	Error            string      `json:"error,omitempty"`
}

// NewVideoInfo creates a record in the uploading state with a fresh video ID
func NewVideoInfo(filename string, fileSize int64) (*VideoInfo, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, errors.New("filename cannot be empty")
	}
	if fileSize < 0 {
		return nil, errors.New("file size cannot be negative")
	}
	return &VideoInfo{
		ID:               uuid.New().String(),
		Filename:         filename,
		OriginalFilename: filename,
		FileSize:         fileSize,
		Status:           StatusUploading,
		UploadedAt:       time.Now().UTC(),
	}, nil
}

// MarkReady records a successful processing run
func (v *VideoInfo) MarkReady(at time.Time) {
	v.Status = StatusReady
	v.ProcessedAt = &at
	v.Error = ""
}

// MarkFailed records a failed processing run and keeps the underlying cause
func (v *VideoInfo) MarkFailed(err error) {
	v.Status = StatusError
	if err != nil {
		v.Error = err.Error()
	}
}
