package billing

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"echolog/internal/domain"
)

const (
	costsSheet   = "Costs"
	historySheet = "History"
)

// ExportXLSX writes the billing snapshot and processing history into a
// two-sheet workbook at path.
func ExportXLSX(path string, snapshot domain.BillingSnapshot, history []domain.HistoryEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", costsSheet); err != nil {
		return err
	}
	if err := writeCosts(f, snapshot); err != nil {
		return err
	}

	if _, err := f.NewSheet(historySheet); err != nil {
		return err
	}
	if err := writeHistory(f, history); err != nil {
		return err
	}

	return f.SaveAs(path)
}

// writeCosts fills the summary block and the service breakdown table.
func writeCosts(f *excelize.File, snapshot domain.BillingSnapshot) error {
	summary := [][]any{
		{"Remaining credits", snapshot.RemainingCredits},
		{"Remaining days", snapshot.RemainingDays},
		{"Total cost (period)", snapshot.TotalCost},
		{"Total cost (all time)", snapshot.TotalCostAllTime},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(costsSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}

	header := []any{"Service", "Cost", "Percentage"}
	if err := f.SetSheetRow(costsSheet, "A6", &header); err != nil {
		return err
	}
	for i, svc := range snapshot.Services {
		row := []any{svc.Service, svc.Cost, svc.Percentage}
		if err := f.SetSheetRow(costsSheet, fmt.Sprintf("A%d", i+7), &row); err != nil {
			return err
		}
	}
	return nil
}

// writeHistory fills the processing history table.
func writeHistory(f *excelize.File, history []domain.HistoryEntry) error {
	header := []any{"Recording", "Transcription", "Filename", "Status", "Duration (s)", "Created"}
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		return err
	}

	for i, entry := range history {
		row := []any{
			string(entry.RecordingID),
			string(entry.TranscriptionID),
			entry.AudioFilename,
			string(entry.Status),
			entry.DurationSeconds,
			entry.CreatedAt.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(historySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}
