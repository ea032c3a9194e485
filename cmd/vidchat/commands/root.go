// ABOUTME: Root command and global flags for the vidchat CLI
// ABOUTME: Registers every subcommand and configures logging before each run
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/vidchat/internal/logging"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
██╗   ██╗██╗██████╗  ██████╗██╗  ██╗ █████╗ ████████╗
██║   ██║██║██╔══██╗██╔════╝██║  ██║██╔══██╗╚══██╔══╝
██║   ██║██║██║  ██║██║     ███████║███████║   ██║
╚██╗ ██╔╝██║██║  ██║██║     ██╔══██║██╔══██║   ██║
 ╚████╔╝ ██║██████╔╝╚██████╗██║  ██║██║  ██║   ██║
  ╚═══╝  ╚═╝╚═════╝  ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vidchat",
		Short: "Chat with your videos",
		Long: banner + `
Upload a video, let vidchat extract and describe its frames and transcribe
its audio, then ask questions answered from the most relevant moments.

Configuration comes from the environment (or a .env file):
OPENAI_API_KEY, ANTHROPIC_API_KEY, INDEX_BACKEND, STORE_BACKEND, ...`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "table", "json":
			default:
				return fmt.Errorf("unknown --format %q (want auto, table or json)", outputFormat)
			}
			logging.Setup(verbose, quiet)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only show errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewUploadCmd(),
		NewStatusCmd(),
		NewListCmd(),
		NewTranscriptCmd(),
		NewFramesCmd(),
		NewChatCmd(),
		NewContextCmd(),
		NewHistoryCmd(),
		NewExportCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
