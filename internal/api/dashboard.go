package api

import (
	"context"

	"echolog/internal/domain"
)

// DashboardStats fetches the read-only usage aggregate.
func (c *Client) DashboardStats(ctx context.Context, session domain.Session) (domain.DashboardStats, error) {
	var out domain.DashboardStats
	if err := c.getJSON(ctx, session, "/dashboard/stats", &out); err != nil {
		return domain.DashboardStats{}, err
	}
	return out, nil
}

// History fetches the processing history list.
func (c *Client) History(ctx context.Context, session domain.Session) ([]domain.HistoryEntry, error) {
	var out struct {
		History []domain.HistoryEntry `json:"history"`
	}
	if err := c.getJSON(ctx, session, "/dashboard/history", &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

// BillingCosts fetches the read-only billing snapshot for the period.
func (c *Client) BillingCosts(ctx context.Context, session domain.Session) (domain.BillingSnapshot, error) {
	var out domain.BillingSnapshot
	if err := c.getJSON(ctx, session, "/billing/costs", &out); err != nil {
		return domain.BillingSnapshot{}, err
	}
	return out, nil
}
