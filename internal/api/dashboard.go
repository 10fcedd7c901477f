package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/diewo77/go-hoardings/internal/models"
)

// DashboardStats fetches the backend's own aggregate.
func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	resp, err := c.Get(ctx, "/dashboard/stats", nil)
	if err != nil {
		return models.DashboardStats{}, err
	}
	return decodeOne[models.DashboardStats](resp.Body, "stats")
}

// RecentActivities fetches the backend's recent-activity feed.
func (c *Client) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	resp, err := c.Get(ctx, "/dashboard/recent-activities", q)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Activity](resp.Body, "activities")
}
