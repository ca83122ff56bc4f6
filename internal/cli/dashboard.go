package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"echolog/internal/billing"
	"echolog/internal/domain"
)

// NewDashboardCmd prints usage statistics and processing history.
func NewDashboardCmd(deps *Dependencies) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show usage statistics and processing history",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := deps.App.RequireSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			stats, err := deps.App.Client.DashboardStats(ctx, session)
			if err != nil {
				return deps.App.HandleAuthError(err)
			}
			fmt.Fprintf(out, "Recordings:      %d\n", stats.TotalRecordings)
			fmt.Fprintf(out, "Transcriptions:  %d\n", stats.TotalTranscription)
			fmt.Fprintf(out, "Analyses:        %d\n", stats.TotalAnalyses)
			fmt.Fprintf(out, "Minutes:         %.1f\n", stats.MinutesProcessed)

			history, err := deps.App.Client.History(ctx, session)
			if err != nil {
				return deps.App.HandleAuthError(err)
			}
			if len(history) == 0 {
				return nil
			}

			fmt.Fprintf(out, "\n%-20s %-14s %-10s %8s  %s\n", "RECORDING", "TRANSCRIPTION", "STATUS", "SECONDS", "CREATED")
			for i, entry := range history {
				if limit > 0 && i >= limit {
					break
				}
				fmt.Fprintf(out, "%-20s %-14s %-10s %8.1f  %s\n",
					entry.RecordingID,
					entry.TranscriptionID,
					entry.Status,
					entry.DurationSeconds,
					entry.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum history rows to print (0 = all)")
	return cmd
}

// NewBillingCmd prints the billing snapshot, optionally exporting it.
func NewBillingCmd(deps *Dependencies) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Show remaining credits and service costs",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := deps.App.RequireSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			snapshot, err := deps.App.Client.BillingCosts(ctx, session)
			if err != nil {
				return deps.App.HandleAuthError(err)
			}
			snapshot = billing.Shape(snapshot)

			fmt.Fprintf(out, "Remaining credits: %.2f\n", snapshot.RemainingCredits)
			fmt.Fprintf(out, "Remaining days:    %d\n", snapshot.RemainingDays)
			fmt.Fprintf(out, "Cost (period):     %.2f\n", snapshot.TotalCost)
			fmt.Fprintf(out, "Cost (all time):   %.2f\n", snapshot.TotalCostAllTime)
			for _, svc := range snapshot.Services {
				fmt.Fprintf(out, "  %-20s %8.2f  %5.1f%%\n", svc.Service, svc.Cost, svc.Percentage)
			}

			if exportPath == "" {
				return nil
			}

			var history []domain.HistoryEntry
			history, err = deps.App.Client.History(ctx, session)
			if err != nil {
				return deps.App.HandleAuthError(err)
			}
			if err := billing.ExportXLSX(exportPath, snapshot, history); err != nil {
				return fmt.Errorf("export workbook: %w", err)
			}
			fmt.Fprintf(out, "\nExported: %s\n", exportPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Write costs and history to an xlsx workbook")
	return cmd
}
