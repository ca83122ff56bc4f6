package billing

import (
	"math"

	"echolog/internal/domain"
)

// Shape fills in derived fields the backend may omit: per-service
// percentages of the period total, rounded to two decimals.
func Shape(snapshot domain.BillingSnapshot) domain.BillingSnapshot {
	total := snapshot.TotalCost
	if total == 0 {
		for _, svc := range snapshot.Services {
			total += svc.Cost
		}
	}

	services := make([]domain.ServiceCost, len(snapshot.Services))
	for i, svc := range snapshot.Services {
		if svc.Percentage == 0 && total > 0 {
			svc.Percentage = round2(svc.Cost / total * 100)
		}
		services[i] = svc
	}
	snapshot.Services = services
	return snapshot
}

// round2 rounds to two decimal places for display and export.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
