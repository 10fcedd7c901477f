package models

// DashboardStats is the backend's own aggregate for the dashboard.
type DashboardStats struct {
	TotalSites       int     `json:"totalSites"`
	OccupiedSites    int     `json:"occupiedSites"`
	TotalClients     int     `json:"totalClients"`
	ActiveActivities int     `json:"activeActivities"`
	MonthlyRevenue   float64 `json:"monthlyRevenue"`
	TotalRevenue     float64 `json:"totalRevenue"`
}
