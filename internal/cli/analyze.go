package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"echolog/internal/api"
	"echolog/internal/domain"
)

// NewAnalyzeCmd requests structured analysis for a transcript.
func NewAnalyzeCmd(deps *Dependencies) *cobra.Command {
	var (
		textFile string
		id       string
		filename string
		force    bool
		retry    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Request AI analysis for a transcript",
		Long:  "Send transcript text to the backend for structured analysis.\n--force bypasses the backend's cached result. --retry re-sends the exact request that last failed, ignoring any edits made since.",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := deps.App.RequireSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if retry {
				result, err := deps.App.Analyzer.Retry(ctx, session)
				if err != nil {
					return deps.App.HandleAuthError(err)
				}
				printAnalysis(cmd, result)
				return nil
			}

			data, err := os.ReadFile(textFile)
			if err != nil {
				return fmt.Errorf("read transcript text: %w", err)
			}

			result, err := deps.App.Analyzer.Run(ctx, session, api.AnalyzeRequest{
				Text:            string(data),
				TranscriptionID: domain.TranscriptionID(id),
				ForceReanalysis: force,
				AudioFilename:   filename,
			})
			if err != nil {
				return deps.App.HandleAuthError(err)
			}
			printAnalysis(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&textFile, "text-file", "", "File containing the transcript text")
	cmd.Flags().StringVar(&id, "id", "", "Durable transcription id the analysis is linked to")
	cmd.Flags().StringVar(&filename, "audio-filename", "", "Original audio filename, if known")
	cmd.Flags().BoolVar(&force, "force", false, "Force recomputation instead of a cached result")
	cmd.Flags().BoolVar(&retry, "retry", false, "Re-send the exact request that last failed")
	return cmd
}

// NewShowCmd retrieves a previously computed analysis.
func NewShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show <analysis-id>",
		Short: "Show a previously computed analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := deps.App.RequireSession()
			if err != nil {
				return err
			}

			result, err := deps.App.Analyzer.Get(cmd.Context(), session, args[0])
			if err != nil {
				return deps.App.HandleAuthError(err)
			}
			printAnalysis(cmd, result)
			return nil
		},
	}
}

// printAnalysis renders an analysis result for the terminal.
func printAnalysis(cmd *cobra.Command, a domain.Analysis) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Summary:\n%s\n", a.Summary)
	if a.Tone != "" {
		fmt.Fprintf(out, "\nTone: %s\n", a.Tone)
	}
	if len(a.Keywords) > 0 {
		fmt.Fprintf(out, "\nKeywords: %s\n", strings.Join(a.Keywords, ", "))
	}
	for _, section := range a.Sections {
		fmt.Fprintf(out, "\n## %s\n%s\n", section.Title, section.Content)
		if len(section.Keywords) > 0 {
			fmt.Fprintf(out, "Keywords: %s\n", strings.Join(section.Keywords, ", "))
		}
	}
}
