package rules

import (
	"github.com/gioariciaga/sql-analysis/internal/scoring/domain"
	"github.com/gioariciaga/sql-analysis/internal/scoring/ladder"
)

// usageTrendTable scores the rolling usage trend percentage. Accounts
// without enough history to compute a trend contribute the fallback zero
// instead of being read as collapsing.
var usageTrendTable = ladder.Table[domain.Metric]{
	Rules: []ladder.Rule[domain.Metric]{
		{When: func(m domain.Metric) bool { return m.GT(20) }, Score: 30},
		{When: func(m domain.Metric) bool { return m.GT(10) }, Score: 20},
		{When: func(m domain.Metric) bool { return m.GT(0) }, Score: 10},
		{When: func(m domain.Metric) bool { return m.GT(-10) }, Score: 0},
		{When: func(m domain.Metric) bool { return m.GT(-20) }, Score: -10},
		{When: func(m domain.Metric) bool { return m.Valid }, Score: -20},
	},
}

var loginTrendTable = ladder.Table[domain.Metric]{
	Rules: []ladder.Rule[domain.Metric]{
		{When: func(m domain.Metric) bool { return m.GT(20) }, Score: 20},
		{When: func(m domain.Metric) bool { return m.GT(10) }, Score: 10},
		{When: func(m domain.Metric) bool { return m.GT(0) }, Score: 5},
		{When: func(m domain.Metric) bool { return m.GT(-10) }, Score: 0},
		{When: func(m domain.Metric) bool { return m.GT(-20) }, Score: -10},
		{When: func(m domain.Metric) bool { return m.Valid }, Score: -15},
	},
}

var consistencyTable = ladder.Table[int]{
	Rules: []ladder.Rule[int]{
		{When: func(weeks int) bool { return weeks >= 7 }, Score: 10},
		{When: func(weeks int) bool { return weeks >= 5 }, Score: 5},
		{When: func(weeks int) bool { return weeks >= 3 }, Score: 0},
	},
	Fallback: -10,
}

// Trend evaluates the three momentum ladders for one account.
func Trend(agg domain.WindowAggregate) domain.TrendSignals {
	return domain.TrendSignals{
		UsageTrend:  usageTrendTable.Eval(agg.UsageTrendPct),
		LoginTrend:  loginTrendTable.Eval(agg.LoginTrendPct),
		Consistency: consistencyTable.Eval(agg.ActiveWeekCount),
	}
}
