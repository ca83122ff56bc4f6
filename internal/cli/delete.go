package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"echolog/internal/domain"
)

// NewDeleteCmd removes a stored transcription from the backend.
func NewDeleteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transcription-id>",
		Short: "Delete a transcription and its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := deps.App.RequireSession()
			if err != nil {
				return err
			}

			id := domain.TranscriptionID(args[0])
			if err := deps.App.Client.DeleteTranscription(cmd.Context(), session, id); err != nil {
				return deps.App.HandleAuthError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", id)
			return nil
		},
	}
}
