// ABOUTME: CLI command to list the frames extracted and indexed for a video
// ABOUTME: Frames are read back from the frames namespace of the vector index
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewFramesCmd creates the frames command
func NewFramesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frames <video-id>",
		Short: "List the indexed frames of a video",
		Long: `List the frames of a video in timestamp order, with the objects and
actions found in each one.

Examples:
  vidchat frames 3f2c...
  vidchat frames 3f2c... --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runFrames,
	}

	return cmd
}

func runFrames(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	frames, err := a.Chat.Frames(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return printJSON(out, frames)
	}
	if len(frames) == 0 {
		if !quiet {
			fmt.Fprintln(out, "No frames indexed")
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tFRAME\tOBJECTS\tACTIONS")
	for _, f := range frames {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", formatClock(f.Timestamp), f.FrameNumber,
			orDash(strings.Join(f.Objects, ", ")), orDash(strings.Join(f.Actions, ", ")))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(out, "\nTotal: %d frame(s)\n", len(frames))
	}
	return nil
}
