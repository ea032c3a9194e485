// ABOUTME: CLI command to upload a video for processing
// ABOUTME: Registers the file, then processes it in the background or waits for the result
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/vidchat/internal/models"
)

var (
	uploadWait bool
)

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a video",
		Long: `Upload a video file for processing.

Frames are extracted with ffmpeg, described, transcribed and indexed.
Without --wait the video ID is printed immediately; the command still
finishes processing before it exits. With --wait the final status is
reported, and a failed run exits non-zero.

Examples:
  vidchat upload talk.mp4
  vidchat upload talk.mp4 --wait
  vidchat upload talk.mp4 --wait --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runUpload,
	}

	cmd.Flags().BoolVar(&uploadWait, "wait", false, "Wait for processing and report the final status")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	info, storedPath, err := a.Processor.Register(ctx, args[0])
	if err != nil {
		return fmt.Errorf("uploading %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if !uploadWait {
		if err := a.Processor.Submit(ctx, info, storedPath); err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(out, info)
		}
		fmt.Fprintf(out, "Uploaded %s\n", info.OriginalFilename)
		fmt.Fprintf(out, "Video ID: %s\n", info.ID)
		if !quiet {
			fmt.Fprintf(out, "Processing... check progress with: vidchat status %s\n", info.ID)
		}
		return nil
	}

	processErr := a.Processor.Process(ctx, info, storedPath)
	if jsonOutput() {
		if err := printJSON(out, info); err != nil {
			return err
		}
	} else {
		printVideo(out, info)
	}
	if processErr != nil || info.Status != models.StatusReady {
		return fmt.Errorf("processing failed: %s", info.Error)
	}
	return nil
}
