// Package rules holds the scoring rule tables of every analysis dimension.
// Each dimension is a set of ordered threshold ladders over windowed
// activity aggregates; the tables are package vars so each rung is visible
// and testable on its own.
package rules

import (
	"math"

	"github.com/gioariciaga/sql-analysis/internal/config"
	"github.com/gioariciaga/sql-analysis/internal/scoring/domain"
	"github.com/gioariciaga/sql-analysis/internal/scoring/ladder"
)

// supportHealthTable scores the support burden from the current-window
// ticket total. Fewer tickets score higher.
var supportHealthTable = ladder.Table[domain.Metric]{
	Rules: []ladder.Rule[domain.Metric]{
		{When: func(m domain.Metric) bool { return m.LTE(0) }, Score: 100},
		{When: func(m domain.Metric) bool { return m.LTE(1) }, Score: 85},
		{When: func(m domain.Metric) bool { return m.LTE(2) }, Score: 70},
		{When: func(m domain.Metric) bool { return m.LTE(3) }, Score: 50},
	},
	Fallback: 30,
}

// loginEngagementTable scores the base engagement from average weekly logins.
var loginEngagementTable = ladder.Table[domain.Metric]{
	Rules: []ladder.Rule[domain.Metric]{
		{When: func(m domain.Metric) bool { return m.GTE(40) }, Score: 90},
		{When: func(m domain.Metric) bool { return m.GTE(30) }, Score: 75},
		{When: func(m domain.Metric) bool { return m.GTE(20) }, Score: 60},
		{When: func(m domain.Metric) bool { return m.GTE(10) }, Score: 40},
	},
	Fallback: 20,
}

// npsModifierTable adjusts the engagement score by survey sentiment.
// Accounts with no survey responses take no adjustment either way.
var npsModifierTable = ladder.Table[domain.Metric]{
	Rules: []ladder.Rule[domain.Metric]{
		{When: func(m domain.Metric) bool { return m.GTE(9) }, Score: 10},
		{When: func(m domain.Metric) bool { return m.GTE(7) }, Score: 5},
		{When: func(m domain.Metric) bool { return m.GTE(5) }, Score: 0},
		{When: func(m domain.Metric) bool { return m.LT(5) }, Score: -10},
	},
	Fallback: 0,
}

// UsageHealth is the current-window feature usage average taken directly
// as a 0-100 score, undefined when the window held no activity.
func UsageHealth(agg domain.WindowAggregate) domain.Metric {
	return agg.Current.AvgUsage
}

// SupportHealth scores the support dimension, undefined without activity.
func SupportHealth(agg domain.WindowAggregate) domain.Metric {
	if !agg.Current.TicketTotal.Valid {
		return domain.Undefined()
	}
	return domain.Defined(supportHealthTable.Eval(agg.Current.TicketTotal))
}

// EngagementHealth scores login frequency adjusted by NPS sentiment,
// undefined without activity.
func EngagementHealth(agg domain.WindowAggregate) domain.Metric {
	if !agg.Current.AvgLogins.Valid {
		return domain.Undefined()
	}
	base := loginEngagementTable.Eval(agg.Current.AvgLogins)
	return domain.Defined(base + npsModifierTable.Eval(agg.Current.AvgNPS))
}

// OverallHealth blends the three dimensions by the configured weights and
// rounds to one decimal. Undefined whenever any dimension is undefined;
// a partially observable account never gets a synthetic composite.
func OverallHealth(w config.HealthWeights, usage, support, engagement domain.Metric) domain.Metric {
	if !usage.Valid || !support.Valid || !engagement.Valid {
		return domain.Undefined()
	}
	blended := usage.Value*w.Usage + support.Value*w.Support + engagement.Value*w.Engagement
	return domain.Defined(math.Round(blended*10) / 10)
}
