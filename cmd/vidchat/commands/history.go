// ABOUTME: CLI command to show or clear a video's chat history
// ABOUTME: Clearing also drops the indexed chat messages for the video
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	historyClear bool
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <video-id>",
		Short: "Show or clear the chat history of a video",
		Long: `Show the chat history of a video in the order it happened.

Examples:
  vidchat history 3f2c...
  vidchat history 3f2c... --clear`,
		Args: cobra.ExactArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().BoolVar(&historyClear, "clear", false, "Delete the chat history instead of showing it")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	videoID := args[0]

	if historyClear {
		removed, err := a.Chat.ClearHistory(ctx, videoID)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(out, map[string]interface{}{"video_id": videoID, "removed": removed})
		}
		fmt.Fprintf(out, "Cleared %d message(s)\n", removed)
		return nil
	}

	messages, err := a.Chat.History(ctx, videoID)
	if err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(out, messages)
	}
	if len(messages) == 0 {
		if !quiet {
			fmt.Fprintln(out, "No messages yet")
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, msg := range messages {
		fmt.Fprintf(w, "%s\t%s\t%s\n", formatTime(msg.CreatedAt), msg.Role, msg.Content)
	}
	_ = w.Flush()
	return nil
}
