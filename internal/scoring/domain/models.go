package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// WindowMetrics are the aggregates of one fixed reference window.
// Averages are undefined when the window holds no records; the ticket
// total is a sum and is likewise undefined without records, because "no
// activity reported" is not the same state as "zero tickets opened".
// The NPS average only draws on weeks that carried a survey response.
type WindowMetrics struct {
	Weeks       int    `json:"weeks"`
	AvgLogins   Metric `json:"avg_logins"`
	AvgUsage    Metric `json:"avg_usage"`
	AvgNPS      Metric `json:"avg_nps"`
	TicketTotal Metric `json:"ticket_total"`
}

// RollingPoint is the trailing rolling average ending at one week,
// computed over however many of the trailing weeks exist in the series.
type RollingPoint struct {
	Week      time.Time `json:"week"`
	AvgLogins Metric    `json:"avg_logins"`
	AvgUsage  Metric    `json:"avg_usage"`
}

// WindowAggregate bundles every windowed view of one customer's activity
// history relative to a single reference date. Derived fresh per run.
type WindowAggregate struct {
	CustomerID      snowflake.ID   `json:"customer_id"`
	Current         WindowMetrics  `json:"current"`
	Prior           WindowMetrics  `json:"prior"`
	Rolling         []RollingPoint `json:"rolling,omitempty"`
	ActiveWeekCount int            `json:"active_week_count"`
	UsageTrendPct   Metric         `json:"usage_trend_pct"`
	LoginTrendPct   Metric         `json:"login_trend_pct"`
}

// HasCurrentData reports whether the current window holds any activity.
func (a WindowAggregate) HasCurrentData() bool { return a.Current.Weeks > 0 }

// ChurnSignals is the per-ladder breakdown of the churn risk score.
type ChurnSignals struct {
	UsageDecline     float64 `json:"usage_decline_risk"`
	SupportBurden    float64 `json:"support_burden_risk"`
	NPSDeterioration float64 `json:"nps_deterioration_risk"`
	LoginDecline     float64 `json:"login_decline_risk"`
	Inactivity       float64 `json:"inactivity_risk"`
}

// Total sums the five signals, uncapped. The composite clamps it.
func (s ChurnSignals) Total() float64 {
	return s.UsageDecline + s.SupportBurden + s.NPSDeterioration + s.LoginDecline + s.Inactivity
}

// ExpansionSignals is the per-ladder breakdown of the expansion score.
type ExpansionSignals struct {
	PlanCeiling  float64 `json:"plan_ceiling_signal"`
	Adoption     float64 `json:"adoption_signal"`
	Growth       float64 `json:"growth_signal"`
	Satisfaction float64 `json:"satisfaction_signal"`
	Mastery      float64 `json:"mastery_signal"`
}

func (s ExpansionSignals) Total() float64 {
	return s.PlanCeiling + s.Adoption + s.Growth + s.Satisfaction + s.Mastery
}

// TrendSignals is the per-ladder breakdown of the trend score.
type TrendSignals struct {
	UsageTrend  float64 `json:"usage_trend_signal"`
	LoginTrend  float64 `json:"login_trend_signal"`
	Consistency float64 `json:"consistency_signal"`
}

func (s TrendSignals) Total() float64 {
	return s.UsageTrend + s.LoginTrend + s.Consistency
}

// AccountRef identifies the scored account in every output row.
type AccountRef struct {
	CustomerID   snowflake.ID `json:"customer_id"`
	CompanyName  string       `json:"company_name"`
	PlanType     string       `json:"plan_type"`
	Status       string       `json:"status"`
	AccountOwner string       `json:"account_owner,omitempty"`
	MRR          float64      `json:"mrr"`
}

// HealthScore is one row of the health analysis output.
type HealthScore struct {
	AccountRef

	UsageHealth      Metric `json:"usage_health_score"`
	SupportHealth    Metric `json:"support_health_score"`
	EngagementHealth Metric `json:"engagement_health_score"`
	Overall          Metric `json:"overall_health_score"`

	Grade  string `json:"grade"`
	Action string `json:"recommended_action"`

	Metrics WindowMetrics `json:"metrics"`
}

// ChurnScore is one row of the churn risk analysis output.
type ChurnScore struct {
	AccountRef

	Score   float64      `json:"churn_risk_score"`
	Tier    string       `json:"risk_tier"`
	Action  string       `json:"recommended_action"`
	Signals ChurnSignals `json:"signals"`

	Metrics WindowMetrics `json:"metrics"`
	Prior   WindowMetrics `json:"prior_metrics"`
}

// ExpansionScore is one row of the expansion readiness analysis output.
type ExpansionScore struct {
	AccountRef

	Score   float64          `json:"expansion_score"`
	Tier    string           `json:"readiness_tier"`
	Action  string           `json:"recommended_action"`
	Signals ExpansionSignals `json:"signals"`

	Metrics WindowMetrics `json:"metrics"`
}

// TrendScore is one row of the usage trend analysis output.
type TrendScore struct {
	AccountRef

	Score   float64      `json:"trend_score"`
	Tier    string       `json:"trend_tier"`
	Action  string       `json:"recommended_action"`
	Signals TrendSignals `json:"signals"`

	UsageTrendPct   Metric `json:"usage_trend_pct"`
	LoginTrendPct   Metric `json:"login_trend_pct"`
	ActiveWeekCount int    `json:"active_week_count"`
}
