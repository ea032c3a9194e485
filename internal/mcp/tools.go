// ABOUTME: MCP tool definitions and registration for the video chat server
// ABOUTME: Declares JSON schemas for upload, status, transcript, frames, chat, context and history tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/vidchat/internal/app"
	"github.com/harper/vidchat/internal/logging"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, a *app.App) *Handlers {
	handlers := &Handlers{
		videos:    a.Store,
		chat:      a.Chat,
		processor: a.Processor,
		maxFrames: a.Config.MaxContextFrames,
		logger:    logging.For("mcp"),
	}

	// 1. upload_video - register a local file and start processing
	server.AddTool(mcp.Tool{
		Name:        "upload_video",
		Description: "Upload a local video file. Frames are extracted, described, transcribed and indexed in the background; poll get_video_status until it is ready.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the video file on the server's filesystem",
				},
				"wait": map[string]interface{}{
					"type":        "boolean",
					"description": "Process synchronously and return the final status (default: false)",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}, handlers.UploadVideo)

	// 2. get_video_status - processing state and stream metadata
	server.AddTool(mcp.Tool{
		Name:        "get_video_status",
		Description: "Get the processing status and metadata of a video.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"video_id": map[string]interface{}{
					"type":        "string",
					"description": "ID returned by upload_video",
				},
			},
			Required: []string{"video_id"},
		},
	}, handlers.GetVideoStatus)

	// 3. list_videos - every known video, newest first
	server.AddTool(mcp.Tool{
		Name:        "list_videos",
		Description: "List uploaded videos with their status, newest first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListVideos)

	// 4. get_video_transcript - full transcript of a processed video
	server.AddTool(mcp.Tool{
		Name:        "get_video_transcript",
		Description: "Get the full transcript of a processed video.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"video_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the video",
				},
			},
			Required: []string{"video_id"},
		},
	}, handlers.GetVideoTranscript)

	// 5. list_frames - indexed frames with their annotations
	server.AddTool(mcp.Tool{
		Name:        "list_frames",
		Description: "List the extracted frames of a video in timestamp order, with detected objects, actions and scene.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"video_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the video",
				},
			},
			Required: []string{"video_id"},
		},
	}, handlers.ListFrames)

	// 6. chat_with_video - answer a question grounded in the video
	server.AddTool(mcp.Tool{
		Name:        "chat_with_video",
		Description: "Ask a question about a ready video. The answer is grounded in the most relevant frames and transcript, and the turn is added to the video's chat history.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"video_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the video",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Question about the video",
				},
				"use_vision": map[string]interface{}{
					"type":        "boolean",
					"description": "Send the retrieved frame images to a vision-capable model (default: true)",
					"default":     true,
				},
				"max_context_frames": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of frames used as context (default: 5)",
					"default":     5,
				},
			},
			Required: []string{"video_id", "message"},
		},
	}, handlers.ChatWithVideo)

	// 7. get_context - the frames and transcript a question would retrieve
	server.AddTool(mcp.Tool{
		Name:        "get_context",
		Description: "Retrieve the ranked frames and transcript excerpt relevant to a query, without generating an answer.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"video_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the video",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text to match against frame descriptions and transcript",
				},
				"max_frames": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of frames to return (default: 5)",
					"default":     5,
				},
			},
			Required: []string{"video_id", "query"},
		},
	}, handlers.GetContext)

	// 8. get_chat_history - the stored conversation for a video
	server.AddTool(mcp.Tool{
		Name:        "get_chat_history",
		Description: "Get the chat history of a video in chronological order.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"video_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the video",
				},
			},
			Required: []string{"video_id"},
		},
	}, handlers.GetChatHistory)

	// 9. clear_chat_history - drop stored turns and their index entries
	server.AddTool(mcp.Tool{
		Name:        "clear_chat_history",
		Description: "Delete the chat history of a video, including its indexed chat messages.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"video_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the video",
				},
			},
			Required: []string{"video_id"},
		},
	}, handlers.ClearChatHistory)

	return handlers
}
