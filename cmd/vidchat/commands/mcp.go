// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents upload videos and chat with them over stdio
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs vidchat as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to upload videos and ask questions about them
via stdio. Logs go to stderr; stdout carries the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  vidchat mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "vidchat": {
  #       "command": "vidchat",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// stdout belongs to the protocol
	logging.SetOutput(os.Stderr)
	logger := logging.For("mcp")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	server := mcpserver.NewMCPServer("vidchat", versionInfo.Version)
	handlers := mcp.RegisterTools(server, a)

	logger.Info("MCP server starting on stdio", "wiring", a.Describe())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, gracefully shutting down")
	case err = <-serverErr:
		if err != nil {
			err = fmt.Errorf("server error: %w", err)
		}
	}

	handlers.Shutdown()
	if closeErr := a.Close(); closeErr != nil {
		logger.Warn("error closing backends", "err", closeErr)
	}
	logger.Info("shutdown complete")
	return err
}
