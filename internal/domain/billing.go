package domain

import "time"

// ServiceCost is one line of the billing breakdown per backend service.
type ServiceCost struct {
	Service    string  `json:"service"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// BillingSnapshot is the read-only billing aggregate for one period.
type BillingSnapshot struct {
	RemainingCredits float64       `json:"remainingCredits"`
	RemainingDays    int           `json:"remainingDays"`
	TotalCost        float64       `json:"totalCost"`
	TotalCostAllTime float64       `json:"totalCostAllTime"`
	Services         []ServiceCost `json:"serviceBreakdown"`
}

// DashboardStats is the read-only usage aggregate for the dashboard.
type DashboardStats struct {
	TotalRecordings    int     `json:"totalRecordings"`
	TotalTranscription int     `json:"totalTranscriptions"`
	TotalAnalyses      int     `json:"totalAnalyses"`
	MinutesProcessed   float64 `json:"minutesProcessed"`
}

// HistoryEntry is one row of the processing history list.
type HistoryEntry struct {
	RecordingID     RecordingID     `json:"recordingId"`
	TranscriptionID TranscriptionID `json:"transcriptionId,omitempty"`
	AudioFilename   string          `json:"audioFilename,omitempty"`
	Status          JobStatus       `json:"status"`
	DurationSeconds float64         `json:"durationSeconds"`
	CreatedAt       time.Time       `json:"createdAt"`
}
