// ABOUTME: CLI commands to chat with a video and to inspect retrieved context
// ABOUTME: Chat records the turn in history, context only shows what would be retrieved
package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/vidchat/internal/models"
)

var (
	chatFrames    int
	chatNoVision  bool
	contextFrames int
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <video-id> <message>",
		Short: "Ask a question about a video",
		Long: `Ask a question about a processed video.

The answer is grounded in the most relevant frames and transcript
passages. Both your question and the answer are added to the video's
chat history.

Examples:
  vidchat chat 3f2c... "what is on the whiteboard?"
  vidchat chat 3f2c... "who speaks first?" --frames 8
  vidchat chat 3f2c... "summarize the talk" --no-vision`,
		Args: cobra.MinimumNArgs(2),
		RunE: runChat,
	}

	cmd.Flags().IntVar(&chatFrames, "frames", 0, "Maximum context frames (default from MAX_CONTEXT_FRAMES)")
	cmd.Flags().BoolVar(&chatNoVision, "no-vision", false, "Do not send frame images to the model")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := validateFrames(chatFrames); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	resp, err := a.Chat.Chat(ctx, models.ChatRequest{
		VideoID:          args[0],
		Message:          strings.Join(args[1:], " "),
		UseVision:        !chatNoVision,
		MaxContextFrames: chatFrames,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return printJSON(out, resp)
	}

	fmt.Fprintln(out, resp.Response)
	if !quiet && len(resp.ContextFrames) > 0 {
		fmt.Fprintf(out, "\nContext frames (confidence %.2f, %.2fs):\n", resp.Confidence, resp.ProcessingTime)
		printFrames(out, resp.ContextFrames)
	}
	return nil
}

// NewContextCmd creates the context command
func NewContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context <video-id> <query>",
		Short: "Show the frames and transcript retrieved for a query",
		Long: `Show the ranked frames and transcript excerpt that a question would
retrieve, without asking a model or touching the chat history.

Examples:
  vidchat context 3f2c... "cat on the mat"
  vidchat context 3f2c... "slides" --frames 10 --format json`,
		Args: cobra.MinimumNArgs(2),
		RunE: runContext,
	}

	cmd.Flags().IntVar(&contextFrames, "frames", 0, "Maximum frames to return (default from MAX_CONTEXT_FRAMES)")

	return cmd
}

func runContext(cmd *cobra.Command, args []string) error {
	if err := validateFrames(contextFrames); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	bundle, err := a.Chat.Context(ctx, args[0], strings.Join(args[1:], " "), contextFrames)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return printJSON(out, bundle)
	}

	if bundle.IsEmpty() {
		if !quiet {
			fmt.Fprintln(out, "No context found")
		}
		return nil
	}
	if len(bundle.Frames) > 0 {
		fmt.Fprintln(out, "Frames:")
		printFrames(out, bundle.Frames)
	}
	if bundle.Transcript != "" {
		fmt.Fprintf(out, "\nTranscript:\n%s\n", truncate(bundle.Transcript, 500))
	}
	return nil
}

func printFrames(out io.Writer, frames []models.FrameContext) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, f := range frames {
		fmt.Fprintf(w, "  %s\t%.2f\t%s\n", formatClock(f.Timestamp), f.Relevance, truncate(f.Description, 80))
	}
	_ = w.Flush()
}

func validateFrames(n int) error {
	if n == 0 {
		return nil
	}
	if err := validatePositiveInt(n, "--frames"); err != nil {
		return err
	}
	if n > 50 {
		return fmt.Errorf("--frames must be at most 50, got %d", n)
	}
	return nil
}
