package rules

import (
	"github.com/gioariciaga/sql-analysis/internal/scoring/domain"
	"github.com/gioariciaga/sql-analysis/internal/scoring/ladder"
)

// MaxChurnScore caps the summed churn signals.
const MaxChurnScore = 100

// usageDeclineTable scores period-over-period usage collapse. Without a
// prior-window baseline the ratio is undefined and the absolute-level
// rung takes over.
var usageDeclineTable = ladder.Table[domain.WindowAggregate]{
	Rules: []ladder.Rule[domain.WindowAggregate]{
		{When: func(a domain.WindowAggregate) bool {
			return domain.Ratio(a.Current.AvgUsage, a.Prior.AvgUsage).LT(0.5)
		}, Score: 25},
		{When: func(a domain.WindowAggregate) bool {
			return domain.Ratio(a.Current.AvgUsage, a.Prior.AvgUsage).LT(0.7)
		}, Score: 15},
		{When: func(a domain.WindowAggregate) bool {
			return a.Current.AvgUsage.LT(40)
		}, Score: 10},
	},
}

var supportBurdenTable = ladder.Table[domain.Metric]{
	Rules: []ladder.Rule[domain.Metric]{
		{When: func(m domain.Metric) bool { return m.GTE(4) }, Score: 25},
		{When: func(m domain.Metric) bool { return m.EQ(3) }, Score: 15},
		{When: func(m domain.Metric) bool { return m.EQ(2) }, Score: 5},
	},
}

// npsDeteriorationTable scores low or worsening survey sentiment. The
// drop rung only fires when both windows carried responses.
var npsDeteriorationTable = ladder.Table[domain.WindowAggregate]{
	Rules: []ladder.Rule[domain.WindowAggregate]{
		{When: func(a domain.WindowAggregate) bool {
			return a.Current.AvgNPS.LT(5)
		}, Score: 20},
		{When: func(a domain.WindowAggregate) bool {
			return a.Current.AvgNPS.LT(7)
		}, Score: 10},
		{When: func(a domain.WindowAggregate) bool {
			return a.Current.AvgNPS.Valid && a.Prior.AvgNPS.Valid &&
				a.Current.AvgNPS.Value < a.Prior.AvgNPS.Value-2
		}, Score: 15},
	},
}

var loginDeclineTable = ladder.Table[domain.WindowAggregate]{
	Rules: []ladder.Rule[domain.WindowAggregate]{
		{When: func(a domain.WindowAggregate) bool {
			return a.Current.AvgLogins.LT(10)
		}, Score: 20},
		{When: func(a domain.WindowAggregate) bool {
			return a.Current.AvgLogins.LT(20)
		}, Score: 10},
		{When: func(a domain.WindowAggregate) bool {
			return domain.Ratio(a.Current.AvgLogins, a.Prior.AvgLogins).LT(0.6)
		}, Score: 10},
	},
}

// Churn evaluates the five risk ladders against one account's windows.
// An account with no recent activity scores through the inactivity rung
// rather than being treated as having zero usage.
func Churn(agg domain.WindowAggregate) domain.ChurnSignals {
	signals := domain.ChurnSignals{
		UsageDecline:     usageDeclineTable.Eval(agg),
		SupportBurden:    supportBurdenTable.Eval(agg.Current.TicketTotal),
		NPSDeterioration: npsDeteriorationTable.Eval(agg),
		LoginDecline:     loginDeclineTable.Eval(agg),
	}
	if agg.ActiveWeekCount < 2 {
		signals.Inactivity = 15
	}
	return signals
}

// ChurnScore clamps the signal total to the 0-100 range.
func ChurnScore(signals domain.ChurnSignals) float64 {
	total := signals.Total()
	if total > MaxChurnScore {
		return MaxChurnScore
	}
	if total < 0 {
		return 0
	}
	return total
}
