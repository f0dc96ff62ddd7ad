// Package domain defines the monthly signup cohort report.
package domain

import (
	"context"
	"time"

	scoringdomain "github.com/gioariciaga/sql-analysis/internal/scoring/domain"
)

// Cohort is the aggregate view of every account that signed up in one
// calendar month.
type Cohort struct {
	Month string `json:"cohort_month"`
	Size  int    `json:"cohort_size"`

	// Composition at signup, keyed by plan tier.
	StartingPlanCounts map[string]int `json:"starting_plan_counts"`

	ActiveCount  int     `json:"active_count"`
	AtRiskCount  int     `json:"at_risk_count"`
	ChurnedCount int     `json:"churned_count"`
	RetentionPct float64 `json:"retention_pct"`

	UpgradedCount  int     `json:"upgraded_count"`
	UpgradeRatePct float64 `json:"upgrade_rate_pct"`

	StartingMRR      float64              `json:"starting_mrr"`
	CurrentMRR       float64              `json:"current_mrr"`
	ActiveMRR        float64              `json:"active_mrr"`
	RevenueRetention scoringdomain.Metric `json:"revenue_retention"`

	// Engagement of the currently active members over their trailing window.
	AvgLogins   scoringdomain.Metric `json:"avg_logins"`
	AvgUsage    scoringdomain.Metric `json:"avg_usage"`
	AvgNPS      scoringdomain.Metric `json:"avg_nps"`
	TicketTotal scoringdomain.Metric `json:"ticket_total"`

	Health    string `json:"health"`
	Lifecycle string `json:"lifecycle_stage"`
}

// Report is one cohort analysis run, newest cohort first.
type Report struct {
	RunID   string    `json:"run_id"`
	AsOf    time.Time `json:"as_of"`
	Results []Cohort  `json:"results"`
}

// Request parameterizes one cohort run. Limit overrides the configured
// cohort cap when positive; it is clamped, never raised.
type Request struct {
	AsOf  time.Time
	Limit int
}

type Service interface {
	Report(ctx context.Context, req Request) (Report, error)
}
