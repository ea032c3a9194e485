// ABOUTME: CLI command to export a video's record, transcript and conversation
// ABOUTME: Writes YAML, JSON or Markdown to stdout or a file
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/vidchat/internal/storage"
)

var (
	exportOutput string
	exportAs     string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <video-id>",
		Short: "Export a video and its conversation",
		Long: `Export a video's metadata, transcript and chat history.

The format follows the output file's extension unless --as is given.

Examples:
  vidchat export 3f2c...
  vidchat export 3f2c... -o talk.md
  vidchat export 3f2c... --as json`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&exportAs, "as", "", "Export format: yaml, json, markdown")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	data, err := storage.Export(ctx, a.Store, a.Store, args[0])
	if err != nil {
		return err
	}

	format := exportAs
	if format == "" {
		switch {
		case exportOutput != "":
			format = storage.FormatFromPath(exportOutput)
		case jsonOutput():
			format = storage.FormatJSON
		default:
			format = storage.FormatYAML
		}
	}

	if exportOutput == "" {
		return storage.Write(cmd.OutOrStdout(), data, format)
	}
	if err := storage.WriteFile(exportOutput, data, format); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d message(s) to %s\n", len(data.Messages), exportOutput)
	}
	return nil
}
