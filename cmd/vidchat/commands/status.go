// ABOUTME: CLI commands to inspect a video's status and transcript
// ABOUTME: Status prints the processing record, transcript prints the recognized speech
package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/vidchat/internal/models"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <video-id>",
		Short: "Show processing status of a video",
		Long: `Show the processing status and metadata of a video.

Examples:
  vidchat status 3f2c...
  vidchat status 3f2c... --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runStatus,
	}

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	info, err := a.Store.GetVideo(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), info)
	}
	printVideo(cmd.OutOrStdout(), info)
	return nil
}

// NewTranscriptCmd creates the transcript command
func NewTranscriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript <video-id>",
		Short: "Print the transcript of a video",
		Long: `Print the full transcript of a processed video.

Examples:
  vidchat transcript 3f2c...`,
		Args: cobra.ExactArgs(1),
		RunE: runTranscript,
	}

	return cmd
}

func runTranscript(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	info, err := a.Store.GetVideo(ctx, args[0])
	if err != nil {
		return err
	}
	if info.Status != models.StatusReady {
		return fmt.Errorf("%w: %s is %s", models.ErrVideoNotReady, info.ID, info.Status)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return printJSON(out, map[string]interface{}{
			"video_id":   info.ID,
			"transcript": info.Transcript,
		})
	}
	if info.Transcript == "" {
		if !quiet {
			fmt.Fprintln(out, "(no transcript)")
		}
		return nil
	}
	fmt.Fprintln(out, info.Transcript)
	return nil
}

func printVideo(out io.Writer, info *models.VideoInfo) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Video ID:\t%s\n", info.ID)
	fmt.Fprintf(w, "File:\t%s\n", info.OriginalFilename)
	fmt.Fprintf(w, "Status:\t%s\n", info.Status)
	if info.Duration > 0 {
		fmt.Fprintf(w, "Duration:\t%s\n", formatClock(info.Duration))
	}
	if info.Resolution != "" {
		fmt.Fprintf(w, "Resolution:\t%s @ %.2f fps\n", info.Resolution, info.FPS)
	}
	fmt.Fprintf(w, "Frames:\t%d\n", info.FrameCount)
	fmt.Fprintf(w, "Uploaded:\t%s\n", formatTime(info.UploadedAt))
	if info.ProcessedAt != nil {
		fmt.Fprintf(w, "Processed:\t%s\n", formatTime(*info.ProcessedAt))
	}
	if info.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", info.Error)
	}
	_ = w.Flush()
}
