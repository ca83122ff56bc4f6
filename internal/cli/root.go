package cli

import (
	"github.com/spf13/cobra"

	"echolog/internal/bootstrap"
	"echolog/internal/version"
)

// Dependencies carries the wired application into command handlers.
type Dependencies struct {
	App *bootstrap.App
}

// NewRootCmd assembles the echolog command tree.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "echolog",
		Short:         "Record audio, transcribe it, and analyze the text",
		Long:          "EchoLog client: records or uploads audio, normalizes it, submits it to the EchoLog backend for transcription, and fetches AI analysis and usage dashboards.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewLoginCmd(deps))
	rootCmd.AddCommand(NewLogoutCmd(deps))
	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewUploadCmd(deps))
	rootCmd.AddCommand(NewAnalyzeCmd(deps))
	rootCmd.AddCommand(NewShowCmd(deps))
	rootCmd.AddCommand(NewDeleteCmd(deps))
	rootCmd.AddCommand(NewDashboardCmd(deps))
	rootCmd.AddCommand(NewBillingCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}
