package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"echolog/internal/domain"
)

// NewDoctorCmd runs environment diagnostics and prints a report.
func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, devices, and backend connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := deps.App.Checker.Run(cmd.Context(), deps.App.Settings, deps.App.Session)
			out := cmd.OutOrStdout()

			for _, item := range report.Items {
				mark := "ok"
				if item.Status == domain.DiagnosticStatusFail {
					mark = "FAIL"
				}
				fmt.Fprintf(out, "[%-4s] %-18s %s\n", mark, item.Name, item.Message)
				if item.Hint != "" {
					fmt.Fprintf(out, "       hint: %s\n", item.Hint)
				}
			}

			if report.HasFailures {
				return fmt.Errorf("diagnostics reported failures")
			}
			fmt.Fprintln(out, "\nAll checks passed.")
			return nil
		},
	}
}
