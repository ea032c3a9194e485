// ABOUTME: Export of a video's status record and chat history
// ABOUTME: Supports YAML, JSON, and Markdown output for any store backend
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/vidchat/internal/models"
)

// ExportVersion is bumped when the export layout changes
const ExportVersion = "1"

// Export formats
const (
	FormatYAML     = "yaml"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ExportData represents the complete exportable data for one video
type ExportData struct {
	Version    string          `yaml:"version" json:"version"`
	ExportedAt string          `yaml:"exported_at" json:"exported_at"`
	Tool       string          `yaml:"tool" json:"tool"`
	Video      ExportVideo     `yaml:"video" json:"video"`
	Messages   []ExportMessage `yaml:"messages" json:"messages"`
}

// ExportVideo is the status record without internal bookkeeping
type ExportVideo struct {
	ID          string  `yaml:"id" json:"id"`
	Filename    string  `yaml:"filename" json:"filename"`
	Status      string  `yaml:"status" json:"status"`
	Duration    float64 `yaml:"duration,omitempty" json:"duration,omitempty"`
	Resolution  string  `yaml:"resolution,omitempty" json:"resolution,omitempty"`
	FrameCount  int     `yaml:"frame_count" json:"frame_count"`
	UploadedAt  string  `yaml:"uploaded_at" json:"uploaded_at"`
	ProcessedAt string  `yaml:"processed_at,omitempty" json:"processed_at,omitempty"`
	Transcript  string  `yaml:"transcript,omitempty" json:"transcript,omitempty"`
	Error       string  `yaml:"error,omitempty" json:"error,omitempty"`
}

// ExportMessage represents one chat turn for export
type ExportMessage struct {
	Role          string   `yaml:"role" json:"role"`
	Content       string   `yaml:"content" json:"content"`
	Timestamp     string   `yaml:"timestamp" json:"timestamp"`
	ContextFrames []string `yaml:"context_frames,omitempty" json:"context_frames,omitempty"`
	Confidence    float64  `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

// Export collects a video and its history
func Export(ctx context.Context, videos VideoStore, chats ChatStore, videoID string) (*ExportData, error) {
	info, err := videos.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	messages, err := chats.ListMessages(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Tool:       "vidchat",
		Video: ExportVideo{
			ID:         info.ID,
			Filename:   info.OriginalFilename,
			Status:     string(info.Status),
			Duration:   info.Duration,
			Resolution: info.Resolution,
			FrameCount: info.FrameCount,
			UploadedAt: info.UploadedAt.Format(time.RFC3339),
			Transcript: info.Transcript,
			Error:      info.Error,
		},
		Messages: make([]ExportMessage, 0, len(messages)),
	}
	if info.ProcessedAt != nil {
		data.Video.ProcessedAt = info.ProcessedAt.Format(time.RFC3339)
	}

	for _, msg := range messages {
		data.Messages = append(data.Messages, ExportMessage{
			Role:          string(msg.Role),
			Content:       msg.Content,
			Timestamp:     msg.CreatedAt.Format(time.RFC3339),
			ContextFrames: msg.ContextFrameIDs,
			Confidence:    msg.Confidence,
		})
	}
	return data, nil
}

// Write renders data in the given format
func Write(w io.Writer, data *ExportData, format string) error {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatMarkdown, "md":
		return writeMarkdown(w, data)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// WriteFile renders data to outputPath, creating parent directories
func WriteFile(outputPath string, data *ExportData, format string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, data, format); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// FormatFromPath guesses the export format from a file extension
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".md", ".markdown":
		return FormatMarkdown
	}
	return FormatYAML
}

func writeMarkdown(w io.Writer, data *ExportData) error {
	v := data.Video
	_, _ = fmt.Fprintf(w, "# %s\n\n", v.Filename)
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	_, _ = fmt.Fprintln(w, "## Video")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "- **ID:** %s\n", v.ID)
	_, _ = fmt.Fprintf(w, "- **Status:** %s\n", v.Status)
	if v.Duration > 0 {
		_, _ = fmt.Fprintf(w, "- **Duration:** %.1fs\n", v.Duration)
	}
	if v.Resolution != "" {
		_, _ = fmt.Fprintf(w, "- **Resolution:** %s\n", v.Resolution)
	}
	_, _ = fmt.Fprintf(w, "- **Frames:** %d\n", v.FrameCount)
	if v.Error != "" {
		_, _ = fmt.Fprintf(w, "- **Error:** %s\n", v.Error)
	}
	_, _ = fmt.Fprintln(w)

	if v.Transcript != "" {
		_, _ = fmt.Fprintln(w, "## Transcript")
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, v.Transcript)
		_, _ = fmt.Fprintln(w)
	}

	if len(data.Messages) > 0 {
		_, _ = fmt.Fprintln(w, "## Conversation")
		_, _ = fmt.Fprintln(w)
		for _, msg := range data.Messages {
			label := "User"
			if msg.Role == string(models.RoleAssistant) {
				label = "Assistant"
			}
			_, _ = fmt.Fprintf(w, "**%s:** %s\n\n", label, msg.Content)
		}
	}
	return nil
}
