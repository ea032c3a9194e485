// ABOUTME: CLI command to list uploaded videos
// ABOUTME: Shows status, frame count and upload time, newest first
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/vidchat/internal/models"
)

var (
	listReady bool
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded videos",
		Long: `List uploaded videos, newest first.

Examples:
  vidchat list
  vidchat list --ready
  vidchat list --format json`,
		RunE: runList,
	}

	cmd.Flags().BoolVar(&listReady, "ready", false, "Only show videos that are ready for chat")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	all, err := a.Store.ListVideos(ctx)
	if err != nil {
		return fmt.Errorf("listing videos: %w", err)
	}

	videos := make([]*models.VideoInfo, 0, len(all))
	for _, v := range all {
		if listReady && v.Status != models.StatusReady {
			continue
		}
		videos = append(videos, v)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return printJSON(out, videos)
	}

	if len(videos) == 0 {
		if !quiet {
			fmt.Fprintf(out, "No videos found\n")
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "VIDEO ID\tFILE\tSTATUS\tFRAMES\tDURATION\tUPLOADED\n")
	fmt.Fprintf(w, "--------\t----\t------\t------\t--------\t--------\n")
	for _, v := range videos {
		duration := "-"
		if v.Duration > 0 {
			duration = formatClock(v.Duration)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			v.ID,
			truncate(v.OriginalFilename, 30),
			v.Status,
			v.FrameCount,
			duration,
			formatTime(v.UploadedAt))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(out, "\nTotal: %d video(s)\n", len(videos))
	}
	return nil
}
