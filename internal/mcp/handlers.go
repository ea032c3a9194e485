// ABOUTME: MCP tool handler implementations for the video chat server
// ABOUTME: Tool failures are returned as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/vidchat/internal/core"
	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	videos    storage.VideoStore
	chat      *core.ChatService
	processor *core.Processor
	maxFrames int
	logger    *log.Logger
}

// UploadVideo handles the upload_video tool
func (h *Handlers) UploadVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil || strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}
	wait := request.GetBool("wait", false)

	info, storedPath, err := h.processor.Register(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("upload failed: %v", err)), nil
	}

	if wait {
		if err := h.processor.Process(ctx, info, storedPath); err != nil {
			h.logger.Warn("processing failed", "video_id", info.ID, "err", err)
		}
	} else if err := h.processor.Submit(ctx, info, storedPath); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start processing: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"video_id": info.ID,
		"filename": info.OriginalFilename,
		"status":   info.Status,
		"error":    info.Error,
	})
}

// GetVideoStatus handles the get_video_status tool
func (h *Handlers) GetVideoStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}

	info, err := h.videos.GetVideo(ctx, videoID)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}

	return jsonResult(map[string]interface{}{
		"video_id":     info.ID,
		"filename":     info.OriginalFilename,
		"status":       info.Status,
		"processing":   h.processor.IsProcessing(info.ID),
		"duration":     info.Duration,
		"fps":          info.FPS,
		"resolution":   info.Resolution,
		"frame_count":  info.FrameCount,
		"uploaded_at":  info.UploadedAt,
		"processed_at": info.ProcessedAt,
		"error":        info.Error,
	})
}

// ListVideos handles the list_videos tool
func (h *Handlers) ListVideos(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videos, err := h.videos.ListVideos(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list videos: %v", err)), nil
	}

	items := make([]map[string]interface{}, 0, len(videos))
	for _, v := range videos {
		items = append(items, map[string]interface{}{
			"video_id":    v.ID,
			"filename":    v.OriginalFilename,
			"status":      v.Status,
			"frame_count": v.FrameCount,
			"uploaded_at": v.UploadedAt,
		})
	}

	return jsonResult(map[string]interface{}{
		"videos": items,
		"count":  len(items),
	})
}

// GetVideoTranscript handles the get_video_transcript tool
func (h *Handlers) GetVideoTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}

	info, err := h.videos.GetVideo(ctx, videoID)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	if info.Status != models.StatusReady {
		return mcp.NewToolResultError(fmt.Sprintf("video %s is not ready (status: %s)", info.ID, info.Status)), nil
	}

	return jsonResult(map[string]interface{}{
		"video_id":   info.ID,
		"transcript": info.Transcript,
		"duration":   info.Duration,
	})
}

// ListFrames handles the list_frames tool
func (h *Handlers) ListFrames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}

	frames, err := h.chat.Frames(ctx, videoID)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}

	return jsonResult(map[string]interface{}{
		"video_id": videoID,
		"frames":   frames,
		"count":    len(frames),
	})
}

// ChatWithVideo handles the chat_with_video tool
func (h *Handlers) ChatWithVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	resp, err := h.chat.Chat(ctx, models.ChatRequest{
		VideoID:          videoID,
		Message:          message,
		UseVision:        request.GetBool("use_vision", true),
		MaxContextFrames: request.GetInt("max_context_frames", h.maxFrames),
	})
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}

	return jsonResult(resp)
}

// GetContext handles the get_context tool
func (h *Handlers) GetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	bundle, err := h.chat.Context(ctx, videoID, query, request.GetInt("max_frames", h.maxFrames))
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}

	return jsonResult(map[string]interface{}{
		"video_id":   videoID,
		"frames":     bundle.Frames,
		"transcript": bundle.Transcript,
	})
}

// GetChatHistory handles the get_chat_history tool
func (h *Handlers) GetChatHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}

	history, err := h.chat.History(ctx, videoID)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}

	return jsonResult(map[string]interface{}{
		"video_id": videoID,
		"messages": history,
		"count":    len(history),
	})
}

// ClearChatHistory handles the clear_chat_history tool
func (h *Handlers) ClearChatHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}

	removed, err := h.chat.ClearHistory(ctx, videoID)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}

	return jsonResult(map[string]interface{}{
		"success":  true,
		"video_id": videoID,
		"removed":  removed,
	})
}

// Shutdown waits for background video processing to finish
func (h *Handlers) Shutdown() {
	h.logger.Info("waiting for pending video processing to complete")
	h.processor.Wait()
	h.logger.Info("all processing completed")
}

func requireVideoID(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	videoID, err := request.RequireString("video_id")
	if err != nil || strings.TrimSpace(videoID) == "" {
		return "", mcp.NewToolResultError("video_id argument is required and must be a string")
	}
	return videoID, nil
}

// describe keeps sentinel failures as-is and labels anything else as a tool failure
func describe(err error) string {
	if errors.Is(err, models.ErrVideoNotFound) || errors.Is(err, models.ErrVideoNotReady) {
		return err.Error()
	}
	return fmt.Sprintf("request failed: %v", err)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
