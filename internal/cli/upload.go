package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewUploadCmd transcribes an existing media file.
func NewUploadCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <media-file>",
		Short: "Transcribe an existing audio or video file",
		Long:  "Normalize a local media file, submit it for transcription, and wait for the transcript. Container video with an audio track is accepted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.App.RequireSession(); err != nil {
				return err
			}

			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("cannot access input file: %w", err)
			}

			coord := deps.App.NewCoordinator()
			defer coord.Teardown()

			stopRender := startRenderer(cmd.OutOrStdout(), deps.App.Bus, false)
			defer stopRender()

			ctx := cmd.Context()
			if err := coord.UseFile(ctx, path); err != nil {
				return err
			}
			if err := coord.Submit(ctx); err != nil {
				return deps.App.HandleAuthError(err)
			}

			result, err := waitForOutcome(ctx, coord)
			if err != nil {
				return err
			}
			return printResult(cmd, deps, result)
		},
	}
	return cmd
}
