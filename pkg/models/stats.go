package models

// DashboardStats are the summary counters shown on the dashboard.
type DashboardStats struct {
	TotalLeads         int     `json:"total_leads"`
	NewLeadsThisWeek   int     `json:"new_leads_this_week"`
	TotalDeals         int     `json:"total_deals"`
	TotalPipelineValue float64 `json:"total_pipeline_value"`
	WonDeals           int     `json:"won_deals"`
	WonValue           float64 `json:"won_value"`
	ActivitiesThisWeek int     `json:"activities_this_week"`
	UpcomingEvents     int     `json:"upcoming_events"`
}
