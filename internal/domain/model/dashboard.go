//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// KPIData are the headline numbers of the dashboard.
type KPIData struct {
	TotalCases            int     `json:"total_cases"`
	BRDsUploaded          int     `json:"brds_uploaded"`
	TBRDsGenerated        int     `json:"tbrds_generated"`
	SuccessRate           float64 `json:"success_rate"`
	AvgGenerationDuration float64 `json:"avg_generation_duration"`
}

// ActivityItem is an entry of the recent activity feed.
type ActivityItem struct {
	ID        string    `json:"id"`
	CaseName  string    `json:"case_name"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user,omitempty"`
}

// CaseStats counts cases created on a date (YYYY-MM-DD).
type CaseStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// PipelineStats counts pipelines per state.
type PipelineStats struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DashboardStats groups the dashboard charts.
type DashboardStats struct {
	CasesPerDay       []CaseStats     `json:"cases_per_day"`
	PipelinesByStatus []PipelineStats `json:"pipelines_by_status"`
}
