// ABOUTME: Main entry point for the vidchat MCP server with stdio transport
// ABOUTME: Loads configuration, wires the application, and serves every tool
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/vidchat/internal/app"
	"github.com/harper/vidchat/internal/config"
	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/mcp"
)

func main() {
	logger := logging.For("server")

	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	if cfg.OpenAIKey == "" && cfg.AnthropicKey == "" {
		logger.Warn("no OPENAI_API_KEY or ANTHROPIC_API_KEY set, answers and transcripts are disabled")
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to initialize", "err", err)
	}

	server := mcpserver.NewMCPServer("vidchat", "0.1.0")
	handlers := mcp.RegisterTools(server, a)

	logger.Info("vidchat MCP server starting on stdio", "wiring", a.Describe())
	serveErr := mcpserver.ServeStdio(server)

	handlers.Shutdown()
	if err := a.Close(); err != nil {
		logger.Warn("error closing backends", "err", err)
	}
	if serveErr != nil {
		logger.Error("server error", "err", serveErr)
		os.Exit(1)
	}
}
